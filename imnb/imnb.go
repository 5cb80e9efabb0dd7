// Package imnb reads and writes .imnb notebook documents: a JSON file of
// ordered cells, each holding raw source lines tagged "music" or
// "markdown". The raw lines are kept verbatim so load -> save round-trips
// source text byte for byte; parsing never feeds back into storage.
package imnb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"sargambook/sargam"

	"github.com/remeh/sizedwaitgroup"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CellTypeMusic marks cells the sargam parser consumes; every other cell
// type is carried through as opaque markdown.
const (
	CellTypeMusic    = "music"
	CellTypeMarkdown = "markdown"
)

// Cell is one notebook cell. Source holds the stored lines exactly as they
// appear in the file, usually with trailing newlines.
type Cell struct {
	CellType string   `json:"cell_type"`
	Source   []string `json:"source"`
}

// Lines flattens the stored source into the line sequence the cell parser
// expects: fragments joined, then split at newlines, without a phantom
// empty line after a trailing newline.
func (c *Cell) Lines() []string {
	joined := strings.Join(c.Source, "")
	joined = strings.TrimSuffix(joined, "\n")
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "\n")
}

// Notebook is a parsed .imnb document.
type Notebook struct {
	Version  int               `json:"imnb_version"`
	Metadata map[string]string `json:"metadata"`
	Cells    []Cell            `json:"cells"`
}

// Read decodes a notebook from r. A UTF-8 byte order mark, if present, is
// stripped before JSON decoding.
func Read(r io.Reader) (*Notebook, error) {
	dec := json.NewDecoder(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	var nb Notebook
	if err := dec.Decode(&nb); err != nil {
		return nil, fmt.Errorf("decode notebook: %w", err)
	}
	if nb.Version == 0 {
		nb.Version = 1
	}
	if nb.Metadata == nil {
		nb.Metadata = map[string]string{}
	}
	return &nb, nil
}

// Load reads the notebook file at path.
func Load(path string) (*Notebook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Save writes the notebook to path as indented JSON.
func (nb *Notebook) Save(path string) error {
	data, err := json.MarshalIndent(nb, "", "  ")
	if err != nil {
		return fmt.Errorf("encode notebook: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// ParseMusic parses every music cell and returns results aligned with
// Cells; non-music slots are nil. Each cell is an independent parse with no
// shared state, so cells run concurrently on a bounded worker set.
func (nb *Notebook) ParseMusic() []*sargam.MusicCell {
	out := make([]*sargam.MusicCell, len(nb.Cells))
	swg := sizedwaitgroup.New(runtime.NumCPU())
	for i := range nb.Cells {
		if nb.Cells[i].CellType != CellTypeMusic {
			continue
		}
		swg.Add()
		go func(i int, lines []string) {
			defer swg.Done()
			out[i] = sargam.ParseMusicCell(lines)
		}(i, nb.Cells[i].Lines())
	}
	swg.Wait()
	return out
}

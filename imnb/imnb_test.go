package imnb

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadFixture(t *testing.T) {
	nb, err := Load(filepath.Join("testdata", "yaman.imnb"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if nb.Version != 1 {
		t.Errorf("version = %d, want 1", nb.Version)
	}
	if len(nb.Cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(nb.Cells))
	}
	if nb.Cells[0].CellType != CellTypeMarkdown || nb.Cells[1].CellType != CellTypeMusic {
		t.Fatalf("cell types = %s, %s", nb.Cells[0].CellType, nb.Cells[1].CellType)
	}
}

func TestReadStripsBOMAndDefaultsVersion(t *testing.T) {
	nb, err := Read(strings.NewReader("\ufeff{\"cells\":[]}"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if nb.Version != 1 {
		t.Errorf("missing version should default to 1, got %d", nb.Version)
	}
}

func TestCellLines(t *testing.T) {
	c := Cell{Source: []string{"S R\n", "G M\n"}}
	want := []string{"S R", "G M"}
	if got := c.Lines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines() = %#v, want %#v", got, want)
	}
	empty := Cell{}
	if got := empty.Lines(); got != nil {
		t.Fatalf("empty cell Lines() = %#v, want nil", got)
	}
}

func TestParseMusic(t *testing.T) {
	nb, err := Load(filepath.Join("testdata", "yaman.imnb"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cells := nb.ParseMusic()
	if len(cells) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(cells))
	}
	if cells[0] != nil {
		t.Errorf("markdown slot should be nil")
	}
	music := cells[1]
	if music == nil {
		t.Fatalf("music slot is nil")
	}
	if got := music.Directives["raga"]; got != "Yaman" {
		t.Errorf("raga = %q", got)
	}
	voices := music.Voices.All()
	if len(voices) != 2 || voices[0].Name != "melody" || voices[1].Name != "tanpura" {
		t.Fatalf("voices = %#v, want melody then tanpura", voices)
	}
	// Two melody lines of 8 notes + 2 bars each.
	if n := len(voices[0].Events); n != 20 {
		t.Errorf("melody has %d events, want 20", n)
	}
}

func TestSaveRoundTripsSource(t *testing.T) {
	nb, err := Load(filepath.Join("testdata", "yaman.imnb"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.imnb")
	if err := nb.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	// Stored source lines must survive byte for byte; the parser never
	// reconstructs formatting.
	if !reflect.DeepEqual(nb.Cells, again.Cells) {
		t.Fatalf("cells changed across save/load")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

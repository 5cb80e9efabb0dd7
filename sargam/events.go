// Package sargam parses line-oriented sargam-v1 music notation into a
// structured event model for rendering, editing, and playback sync.
package sargam

import (
	"bytes"
	"encoding/json"
)

// Microtone units as surfaced in the event model and API JSON. Inside tokens
// the wire forms are "c" and "st".
const (
	UnitCents     = "cents"
	UnitSemitones = "semitones"
)

// Microtone is a fine pitch offset in cents or semitones. Value keeps the
// sign from the token ("n-30c" yields -30).
type Microtone struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Ornament is a named embellishment with optional positional parameters.
type Ornament struct {
	Name   string   `json:"name"`
	Params []string `json:"params,omitempty"`
}

// Event is one decoded token: note, rest, hold, or bar.
type Event interface {
	// Line returns the logical line the event was decoded on. Logical
	// lines track visual measures, not physical text lines: blank lines
	// do not advance them and a double bar advances them mid-line.
	Line() int
}

// NoteEvent is a sounding note. Variant and Microtone are mutually
// exclusive except on the komal shorthand path, where the flat tag is
// always present and a microtone may accompany it.
type NoteEvent struct {
	Swara     string
	Octave    int
	Variant   string // "" when absent; stored verbatim, not validated
	Microtone *Microtone
	Duration  float64
	LineIndex int
	Ornaments []Ornament
	Lyric     *string // nil when absent; "" is a valid lyric
}

// RestEvent is a silence of the given duration in beats.
type RestEvent struct {
	Duration  float64
	LineIndex int
}

// HoldEvent extends the previous note's sounding duration.
type HoldEvent struct {
	Duration  float64
	LineIndex int
}

// BarEvent is a bar line; Double marks a cycle boundary ("||").
type BarEvent struct {
	Double    bool
	LineIndex int
}

func (e *NoteEvent) Line() int { return e.LineIndex }
func (e *RestEvent) Line() int { return e.LineIndex }
func (e *HoldEvent) Line() int { return e.LineIndex }
func (e *BarEvent) Line() int  { return e.LineIndex }

func (e *NoteEvent) MarshalJSON() ([]byte, error) {
	var lyric any
	if e.Lyric != nil {
		lyric = *e.Lyric
	}
	orns := e.Ornaments
	if orns == nil {
		orns = []Ornament{}
	}
	return json.Marshal(struct {
		Type      string     `json:"type"`
		Swara     string     `json:"swara"`
		Octave    int        `json:"octave"`
		Variant   *string    `json:"variant"`
		Microtone *Microtone `json:"microtone"`
		Duration  float64    `json:"duration"`
		LineIndex int        `json:"line_index"`
		Ornaments []Ornament `json:"ornaments"`
		Lyric     any        `json:"lyric"`
	}{
		Type:      "note",
		Swara:     e.Swara,
		Octave:    e.Octave,
		Variant:   optString(e.Variant),
		Microtone: e.Microtone,
		Duration:  e.Duration,
		LineIndex: e.LineIndex,
		Ornaments: orns,
		Lyric:     lyric,
	})
}

func (e *RestEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string  `json:"type"`
		Duration  float64 `json:"duration"`
		LineIndex int     `json:"line_index"`
	}{"rest", e.Duration, e.LineIndex})
}

func (e *HoldEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string  `json:"type"`
		Duration  float64 `json:"duration"`
		LineIndex int     `json:"line_index"`
	}{"hold", e.Duration, e.LineIndex})
}

func (e *BarEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string `json:"type"`
		Double    bool   `json:"double"`
		LineIndex int    `json:"line_index"`
	}{"bar", e.Double, e.LineIndex})
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Voice is a named, ordered sequence of events for one performer/track.
type Voice struct {
	Name   string  `json:"name"`
	Events []Event `json:"events"`
}

// VoiceSet keeps voices in first-reference order. JSON marshaling emits an
// object whose keys appear in that order.
type VoiceSet struct {
	order  []*Voice
	byName map[string]*Voice
}

func newVoiceSet() *VoiceSet {
	return &VoiceSet{byName: make(map[string]*Voice)}
}

// Get returns the named voice if it exists.
func (vs *VoiceSet) Get(name string) (*Voice, bool) {
	v, ok := vs.byName[name]
	return v, ok
}

// GetOrCreate returns the named voice, creating it on first reference.
func (vs *VoiceSet) GetOrCreate(name string) *Voice {
	if v, ok := vs.byName[name]; ok {
		return v
	}
	v := &Voice{Name: name}
	vs.byName[name] = v
	vs.order = append(vs.order, v)
	return v
}

// All returns the voices in first-reference order. The returned slice is
// shared; callers must not reorder it.
func (vs *VoiceSet) All() []*Voice { return vs.order }

func (vs *VoiceSet) Len() int { return len(vs.order) }

func (vs *VoiceSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range vs.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		ev := v.Events
		if ev == nil {
			ev = []Event{}
		}
		val, err := json.Marshal(struct {
			Name   string  `json:"name"`
			Events []Event `json:"events"`
		}{v.Name, ev})
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MusicCell is the result of parsing one music cell: the directive map plus
// the ordered voice collection. It is built once per parse call and not
// mutated after return.
type MusicCell struct {
	Directives map[string]string `json:"directives"`
	Voices     *VoiceSet         `json:"voices"`
}

func newMusicCell() *MusicCell {
	return &MusicCell{
		Directives: make(map[string]string),
		Voices:     newVoiceSet(),
	}
}

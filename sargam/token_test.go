package sargam

import (
	"reflect"
	"testing"
)

func strp(s string) *string { return &s }

func TestDecodeBarRestHold(t *testing.T) {
	tests := []struct {
		token string
		want  Event
	}{
		{"|", &BarEvent{Double: false}},
		{"||", &BarEvent{Double: true}},
		{"_", &RestEvent{Duration: 1}},
		{"_2", &RestEvent{Duration: 2}},
		{"_:3", &RestEvent{Duration: 3}},
		{".", &HoldEvent{Duration: 1}},
		{".0.5", &HoldEvent{Duration: 0.5}},
		{".:2.25", &HoldEvent{Duration: 2.25}},
	}
	for _, tt := range tests {
		got, ok := DecodeToken(tt.token, 1, 0)
		if !ok {
			t.Fatalf("%q not decoded", tt.token)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q = %#v, want %#v", tt.token, got, tt.want)
		}
	}
}

func TestDecodeRestHoldDefaultDuration(t *testing.T) {
	got, ok := DecodeToken("_", 2.5, 0)
	if !ok {
		t.Fatalf("rest not decoded")
	}
	if r := got.(*RestEvent); r.Duration != 2.5 {
		t.Errorf("rest duration = %v, want 2.5", r.Duration)
	}
}

func TestDecodeNoteTokens(t *testing.T) {
	tests := []struct {
		token string
		want  *NoteEvent
	}{
		{"S", &NoteEvent{Swara: "S", Duration: 1}},
		{"S'", &NoteEvent{Swara: "S", Octave: 1, Duration: 1}},
		{"S,,", &NoteEvent{Swara: "S", Octave: -2, Duration: 1}},
		{"S:2", &NoteEvent{Swara: "S", Duration: 2}},
		{"S:2.5", &NoteEvent{Swara: "S", Duration: 2.5}},
		{"Sk", &NoteEvent{Swara: "S", Variant: "k", Duration: 1}},
		{"St", &NoteEvent{Swara: "S", Variant: "t", Duration: 1}},
		{"Sb", &NoteEvent{Swara: "S", Variant: "b", Duration: 1}},
		{"S#", &NoteEvent{Swara: "S", Variant: "#", Duration: 1}},
		// 'k' followed by a lower-case letter is part of the swara, not a tag.
		{"Ska", &NoteEvent{Swara: "Ska", Duration: 1}},
		{"S't", &NoteEvent{Swara: "S", Octave: 1, Variant: "t", Duration: 1}},
		{"Rn+30c", &NoteEvent{Swara: "R", Microtone: &Microtone{Value: 30, Unit: UnitCents}, Duration: 1}},
		{"Gn-0.5st", &NoteEvent{Swara: "G", Microtone: &Microtone{Value: -0.5, Unit: UnitSemitones}, Duration: 1}},
		// Komal shorthand and its interactions.
		{"g", &NoteEvent{Swara: "G", Variant: "k", Duration: 1}},
		{"r'", &NoteEvent{Swara: "R", Variant: "k", Octave: 1, Duration: 1}},
		{"rn+30c", &NoteEvent{Swara: "R", Variant: "k", Microtone: &Microtone{Value: 30, Unit: UnitCents}, Duration: 1}},
		{"d:2", &NoteEvent{Swara: "D", Variant: "k", Duration: 2}},
		// Lyrics.
		{"S=sa", &NoteEvent{Swara: "S", Duration: 1, Lyric: strp("sa")}},
		{`S="sa"`, &NoteEvent{Swara: "S", Duration: 1, Lyric: strp("sa")}},
		{"S=", &NoteEvent{Swara: "S", Duration: 1, Lyric: strp("")}},
		// Ornaments.
		{"S+mordent", &NoteEvent{Swara: "S", Duration: 1, Ornaments: []Ornament{{Name: "mordent"}}}},
		{"S+mordent(up)=sa", &NoteEvent{Swara: "S", Duration: 1,
			Ornaments: []Ornament{{Name: "mordent", Params: []string{"up"}}}, Lyric: strp("sa")}},
		{"S+slide(G,2),kan", &NoteEvent{Swara: "S", Duration: 1,
			Ornaments: []Ornament{{Name: "slide", Params: []string{"G", "2"}}, {Name: "kan"}}}},
		// A spec that matches neither form keeps its raw text as the name.
		{"S+m1", &NoteEvent{Swara: "S", Duration: 1, Ornaments: []Ornament{{Name: "m1"}}}},
		// The '+' of a microtone sign is not an ornament delimiter.
		{"Rn+30c+mordent", &NoteEvent{Swara: "R",
			Microtone: &Microtone{Value: 30, Unit: UnitCents}, Duration: 1,
			Ornaments: []Ornament{{Name: "mordent"}}}},
		// Multi-letter swaras pass through whole.
		{"Sa", &NoteEvent{Swara: "Sa", Duration: 1}},
		{"P", &NoteEvent{Swara: "P", Duration: 1}},
	}
	for _, tt := range tests {
		got, ok := DecodeToken(tt.token, 1, 0)
		if !ok {
			t.Fatalf("%q not decoded", tt.token)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q = %#v, want %#v", tt.token, got, tt.want)
		}
	}
}

func TestDecodeUnrecognized(t *testing.T) {
	tokens := []string{
		"",        // nothing there
		"?",       // no swara
		"123",     // digits are not a swara
		"'S",      // modifier before any swara
		"_abc",    // rest with unparsable duration
		"_0",      // durations must be positive
		".x",      // hold with unparsable duration
		"S:x",     // failed duration suffix poisons the swara text
		"S:0",     // zero duration is not a duration
		"=la",     // lyric with no note part
		"S2",      // trailing digit without ':' is not grammar
		"S:1e3",   // exponents are not part of the number grammar
		",",       // bare octave mark
		"kS",      // variant tag cannot lead
		"n+30c+x", // komal N swallows the n, then '+30c' is no microtone; still a note
	}
	for _, tok := range tokens {
		ev, ok := DecodeToken(tok, 1, 0)
		if tok == "n+30c+x" {
			// Decodes on the komal path; listed here as the tie-break
			// companion of the microtone sign exclusion above.
			if !ok {
				t.Fatalf("%q should decode via komal path", tok)
			}
			n := ev.(*NoteEvent)
			if n.Swara != "N" || n.Variant != "k+30c" {
				t.Errorf("%q = %#v, want komal N with verbatim variant", tok, n)
			}
			continue
		}
		if ok {
			t.Errorf("%q decoded to %#v, want unrecognized", tok, ev)
		}
	}
}

func TestDecodeLineIndexPassthrough(t *testing.T) {
	ev, ok := DecodeToken("S", 1, 7)
	if !ok || ev.Line() != 7 {
		t.Fatalf("line index not carried through: %#v", ev)
	}
}

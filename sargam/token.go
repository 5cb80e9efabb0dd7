package sargam

import (
	"strconv"
	"strings"
)

// komal shorthand letters: the lower-case form denotes the flattened
// variant of the corresponding upper-case swara.
const komalLetters = "rgdn"

// flatTag is the variant recorded for komal notes.
const flatTag = "k"

// DecodeToken decodes one whitespace-delimited token into an event. It is a
// pure function of its inputs and never fails hard: a token that matches no
// known form reports ok=false and the caller drops it.
//
// A note token packs up to six fields with overlapping punctuation, so the
// stages below run in a fixed order and each one consumes its match before
// the next looks at the remainder:
//
//	bar -> rest/hold -> lyric -> ornaments -> duration -> komal ->
//	swara/modifier -> octave -> variant/microtone
func DecodeToken(token string, defaultDuration float64, lineIndex int) (Event, bool) {
	// Bar markers terminate decoding immediately.
	if token == "|" {
		return &BarEvent{Double: false, LineIndex: lineIndex}, true
	}
	if token == "||" {
		return &BarEvent{Double: true, LineIndex: lineIndex}, true
	}

	// Rest and hold share a shape: marker, optional ':', optional duration.
	if strings.HasPrefix(token, "_") {
		dur, ok := restHoldDuration(token[1:], defaultDuration)
		if !ok {
			return nil, false
		}
		return &RestEvent{Duration: dur, LineIndex: lineIndex}, true
	}
	if strings.HasPrefix(token, ".") {
		dur, ok := restHoldDuration(token[1:], defaultDuration)
		if !ok {
			return nil, false
		}
		return &HoldEvent{Duration: dur, LineIndex: lineIndex}, true
	}

	notePart := token

	// Lyric: everything after the first '='. Quotes are trimmed; an empty
	// lyric is still a lyric.
	var lyric *string
	if idx := strings.IndexByte(notePart, '='); idx >= 0 {
		l := strings.Trim(notePart[idx+1:], `"`)
		lyric = &l
		notePart = notePart[:idx]
	}

	// Ornaments: after a '+' that is not part of a microtone sign ("n+").
	ornamentPart := ""
	haveOrnaments := false
	if idx := ornamentDelim(notePart); idx >= 0 {
		ornamentPart = notePart[idx+1:]
		haveOrnaments = true
		notePart = notePart[:idx]
	}

	// Explicit duration: the suffix after the last ':', when it parses as a
	// positive number. Otherwise the ':' stays put and the default applies.
	duration := defaultDuration
	if idx := strings.LastIndexByte(notePart, ':'); idx >= 0 {
		if d, ok := parseDuration(notePart[idx+1:]); ok {
			duration = d
			notePart = notePart[:idx]
		}
	}

	variant := ""
	var modifier string
	var swara string

	if len(notePart) > 0 && strings.IndexByte(komalLetters, notePart[0]) >= 0 {
		// Komal shorthand: lower-case r/g/d/n is the flattened upper-case
		// swara. The rest of the note part is ordinary modifier text.
		swara = strings.ToUpper(notePart[:1])
		variant = flatTag
		modifier = notePart[1:]
	} else {
		idx := modifierStart(notePart)
		if idx == 0 {
			// No swara to attach the modifier to.
			return nil, false
		}
		if idx < 0 {
			swara = notePart
		} else {
			swara = notePart[:idx]
			modifier = notePart[idx:]
		}
		if !isLetters(swara) {
			return nil, false
		}
	}

	// Octave marks may sit anywhere in the modifier text.
	octave := 0
	residual := make([]byte, 0, len(modifier))
	for i := 0; i < len(modifier); i++ {
		switch modifier[i] {
		case '\'':
			octave++
		case ',':
			octave--
		default:
			residual = append(residual, modifier[i])
		}
	}

	// A full microtone match wins; any other residual is a variant tag,
	// verbatim. On the komal path the flat tag is never cleared: a
	// microtone joins it, anything else extends it.
	var micro *Microtone
	if len(residual) > 0 {
		if m, ok := parseMicrotone(string(residual)); ok {
			micro = m
		} else if variant == flatTag {
			variant += string(residual)
		} else {
			variant = string(residual)
		}
	}

	ev := &NoteEvent{
		Swara:     swara,
		Octave:    octave,
		Variant:   variant,
		Microtone: micro,
		Duration:  duration,
		LineIndex: lineIndex,
		Lyric:     lyric,
	}
	if haveOrnaments {
		ev.Ornaments = parseOrnaments(ornamentPart)
	}
	return ev, true
}

// restHoldDuration decodes the tail of a rest/hold token: an optional ':'
// then either nothing (default) or a positive number.
func restHoldDuration(tail string, def float64) (float64, bool) {
	tail = strings.TrimPrefix(tail, ":")
	if tail == "" {
		return def, true
	}
	return parseDuration(tail)
}

// ornamentDelim locates the '+' introducing the ornament list. A '+'
// directly after 'n' belongs to a microtone sign and is skipped.
func ornamentDelim(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '+' && (i == 0 || s[i-1] != 'n') {
			return i
		}
	}
	return -1
}

// modifierStart finds the first byte that begins modifier text: an octave
// mark, an explicit accidental, a k/t variant tag not followed by another
// lower-case letter, or a microtone sign pair. Returns -1 when the whole
// string is swara.
func modifierStart(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', ',', '#', 'b':
			return i
		case 'k', 't':
			if i+1 >= len(s) || !isLower(s[i+1]) {
				return i
			}
		case 'n':
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				return i
			}
		}
	}
	return -1
}

// parseMicrotone matches the complete microtone form: 'n', a sign, a
// number, then a unit of 'c' (cents) or 'st' (semitones). Partial matches
// fail so the text can fall back to a variant tag.
func parseMicrotone(s string) (*Microtone, bool) {
	if len(s) < 3 || s[0] != 'n' {
		return nil, false
	}
	sign := 1.0
	switch s[1] {
	case '+':
	case '-':
		sign = -1
	default:
		return nil, false
	}
	rest := s[2:]
	unit := ""
	switch {
	case strings.HasSuffix(rest, "st"):
		unit = UnitSemitones
		rest = rest[:len(rest)-2]
	case strings.HasSuffix(rest, "c"):
		unit = UnitCents
		rest = rest[:len(rest)-1]
	default:
		return nil, false
	}
	v, ok := parseNumber(rest)
	if !ok {
		return nil, false
	}
	return &Microtone{Value: sign * v, Unit: unit}, true
}

// parseOrnaments splits the ornament list on commas outside parentheses and
// decodes each spec as "name" or "name(param, param)". A spec that matches
// neither form is still kept, raw text as the name.
func parseOrnaments(s string) []Ornament {
	var out []Ornament
	depth := 0
	start := 0
	flush := func(part string) {
		part = strings.TrimSpace(part)
		if part == "" {
			return
		}
		out = append(out, parseOrnament(part))
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush(s[start:i])
				start = i + 1
			}
		}
	}
	flush(s[start:])
	return out
}

func parseOrnament(spec string) Ornament {
	i := 0
	for i < len(spec) && (isLetter(spec[i]) || spec[i] == '_') {
		i++
	}
	if i == 0 {
		return Ornament{Name: spec}
	}
	name := spec[:i]
	if i == len(spec) {
		return Ornament{Name: name}
	}
	if spec[i] != '(' || spec[len(spec)-1] != ')' {
		return Ornament{Name: spec}
	}
	var params []string
	for _, p := range strings.Split(spec[i+1:len(spec)-1], ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			params = append(params, p)
		}
	}
	return Ornament{Name: name, Params: params}
}

// parseNumber accepts the grammar's unsigned reals: digits with an optional
// fraction. Anything strconv would take beyond that (signs, exponents, inf)
// is rejected so stray text cannot masquerade as a number.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	dot := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			if dot || i == 0 || i == len(s)-1 {
				return 0, false
			}
			dot = true
			continue
		}
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseDuration is parseNumber restricted to positive values; durations of
// zero make no musical sense and are treated as non-matches.
func parseDuration(s string) (float64, bool) {
	v, ok := parseNumber(s)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isLetter(s[i]) {
			return false
		}
	}
	return true
}

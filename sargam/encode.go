package sargam

import (
	"strconv"
	"strings"
)

// EncodeToken renders an event back to canonical token text. Decoding the
// result yields an identical event apart from the line index, which only
// the surrounding cell can assign. Durations are always written explicitly
// so the result does not depend on any default.
func EncodeToken(ev Event) string {
	switch e := ev.(type) {
	case *BarEvent:
		if e.Double {
			return "||"
		}
		return "|"
	case *RestEvent:
		return "_:" + formatNumber(e.Duration)
	case *HoldEvent:
		return ".:" + formatNumber(e.Duration)
	case *NoteEvent:
		return encodeNote(e)
	}
	return ""
}

func encodeNote(e *NoteEvent) string {
	var sb strings.Builder

	// The komal shorthand is the canonical spelling of a flat tag on the
	// four swaras that have one; it also survives extra variant text and a
	// microtone, which the long form cannot express together.
	variant := e.Variant
	if strings.HasPrefix(variant, flatTag) && len(e.Swara) == 1 &&
		strings.IndexByte(strings.ToUpper(komalLetters), e.Swara[0]) >= 0 {
		sb.WriteString(strings.ToLower(e.Swara))
		variant = variant[len(flatTag):]
	} else {
		sb.WriteString(e.Swara)
	}

	for i := 0; i < e.Octave; i++ {
		sb.WriteByte('\'')
	}
	for i := 0; i > e.Octave; i-- {
		sb.WriteByte(',')
	}

	sb.WriteString(variant)
	if e.Microtone != nil {
		sb.WriteByte('n')
		v := e.Microtone.Value
		if v < 0 {
			sb.WriteByte('-')
			v = -v
		} else {
			sb.WriteByte('+')
		}
		sb.WriteString(formatNumber(v))
		if e.Microtone.Unit == UnitSemitones {
			sb.WriteString("st")
		} else {
			sb.WriteByte('c')
		}
	}

	sb.WriteByte(':')
	sb.WriteString(formatNumber(e.Duration))

	if len(e.Ornaments) > 0 {
		sb.WriteByte('+')
		for i, o := range e.Ornaments {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(o.Name)
			if len(o.Params) > 0 {
				sb.WriteByte('(')
				sb.WriteString(strings.Join(o.Params, ","))
				sb.WriteByte(')')
			}
		}
	}

	if e.Lyric != nil {
		sb.WriteString(`="`)
		sb.WriteString(*e.Lyric)
		sb.WriteByte('"')
	}
	return sb.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

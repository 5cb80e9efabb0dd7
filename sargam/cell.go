package sargam

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// initialDefaultDuration applies until a @default_duration directive
// overrides it, and again whenever such a directive fails to parse.
const initialDefaultDuration = 1.0

// keyCaser folds directive keys; @Default_Duration and @default_duration
// must land on the same entry.
var keyCaser = cases.Lower(language.Und)

// parserState is the per-call state threaded through the line handlers.
// Handlers take a state and return the next one; nothing is ambient, so a
// single line transition can be exercised in isolation.
type parserState struct {
	cell            *MusicCell
	voice           *Voice // active voice; nil until first reference
	defaultDuration float64
	line            int  // logical-line counter
	sawLine         bool // a non-blank physical line has been consumed
}

// ParseMusicCell parses one music cell's source lines into directives and
// voices. Malformed note tokens are dropped silently and the call itself
// never fails; playback is never blocked on authoring typos. Lint reports
// the drops for callers that want them.
func ParseMusicCell(lines []string) *MusicCell {
	st := parserState{
		cell:            newMusicCell(),
		defaultDuration: initialDefaultDuration,
	}
	for _, raw := range lines {
		st = parseLine(st, raw)
	}
	return st.cell
}

// parseLine classifies one physical line and applies it to the state.
func parseLine(st parserState, raw string) parserState {
	line := strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(line) == "" {
		// Blank lines do not advance the logical-line counter.
		return st
	}
	// Every non-blank line after the first advances the counter, whatever
	// its kind: directives and voice switches occupy visual rows too.
	if st.sawLine {
		st.line++
	} else {
		st.sawLine = true
	}

	switch {
	case strings.HasPrefix(line, "@"):
		return parseDirectiveLine(st, line[1:])
	case strings.HasPrefix(strings.ToLower(line), "#voice"):
		return parseVoiceSwitch(st, line)
	}
	return parseNoteLine(st, line)
}

// parseDirectiveLine records "@key value". The key is case-folded; the
// value is everything after the first whitespace run, verbatim. Only
// default_duration is consumed semantically; other keys are stored inert.
func parseDirectiveLine(st parserState, body string) parserState {
	key, value := splitDirective(body)
	if key == "" {
		return st
	}
	key = keyCaser.String(key)
	st.cell.Directives[key] = value
	if key == "default_duration" {
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || v <= 0 {
			// Unusable values silently reset to the initial default.
			v = initialDefaultDuration
		}
		st.defaultDuration = v
	}
	return st
}

// splitDirective separates the first whitespace-delimited token from the
// remainder, trimming the whitespace run between them.
func splitDirective(body string) (key, value string) {
	body = strings.TrimLeft(body, " \t")
	i := strings.IndexAny(body, " \t")
	if i < 0 {
		return body, ""
	}
	return body[:i], strings.TrimLeft(body[i:], " \t")
}

// parseVoiceSwitch activates the named voice, creating it on first
// reference. "#voice" with no name selects "default".
func parseVoiceSwitch(st parserState, line string) parserState {
	name := "default"
	if fields := strings.Fields(line); len(fields) >= 2 {
		name = fields[1]
	}
	st.voice = st.cell.Voices.GetOrCreate(name)
	return st
}

// parseNoteLine tokenizes a note line and appends each decoded event to the
// active voice, creating the implicit "default" voice when note lines
// appear before any voice switch.
func parseNoteLine(st parserState, line string) parserState {
	if st.voice == nil {
		st.voice = st.cell.Voices.GetOrCreate("default")
	}
	for _, token := range strings.Fields(stripComment(line)) {
		ev, ok := DecodeToken(token, st.defaultDuration, st.line)
		if !ok {
			continue
		}
		st.voice.Events = append(st.voice.Events, ev)
		// A double bar starts a new visual measure mid-line: every token
		// after it decodes on the next logical line.
		if bar, isBar := ev.(*BarEvent); isBar && bar.Double {
			st.line++
		}
	}
	return st
}

// stripComment cuts the line at the first unescaped '#' and unescapes any
// surviving "\#" so an escaped hash can appear inside tokens.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '#' && (i == 0 || line[i-1] != '\\') {
			line = line[:i]
			break
		}
	}
	return strings.ReplaceAll(line, `\#`, "#")
}

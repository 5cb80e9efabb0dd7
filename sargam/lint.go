package sargam

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/f1monkey/spellchecker"
)

// Problem is one authoring diagnostic. PhysLine is the zero-based physical
// line the problem was found on; Text is the offending token or key.
type Problem struct {
	PhysLine int    `json:"phys_line"`
	Kind     string `json:"kind"` // "token", "directive", "duration"
	Text     string `json:"text"`
	Message  string `json:"message"`
}

// directiveKeys is the vocabulary the parser gives meaning to. Unknown keys
// are legal and stored inert, but they are usually typos worth flagging.
var directiveKeys = []string{"language", "raga", "tala", "default_duration"}

var (
	keyCheckOnce sync.Once
	keyChecker   *spellchecker.Spellchecker
)

func loadKeyChecker() {
	sc, err := spellchecker.New("abcdefghijklmnopqrstuvwxyz_", spellchecker.WithMaxErrors(1))
	if err != nil {
		return
	}
	sc.Add(directiveKeys...)
	keyChecker = sc
}

// suggestKey proposes a close known directive key, or "" when nothing is
// within edit distance.
func suggestKey(key string) string {
	keyCheckOnce.Do(loadKeyChecker)
	if keyChecker == nil || keyChecker.IsCorrect(key) {
		return ""
	}
	suggestions, err := keyChecker.Suggest(key, 1)
	if err != nil || len(suggestions) == 0 {
		return ""
	}
	return suggestions[0]
}

// Lint walks cell source the way ParseMusicCell does but promotes every
// silent drop to a diagnostic: unrecognized tokens, unusable
// @default_duration values, and unknown directive keys (with a near-miss
// suggestion when one exists). Parsing behavior itself stays best-effort;
// Lint is the opt-in strict pass layered on top of the decoder.
func Lint(lines []string) []Problem {
	var problems []Problem
	defaultDuration := initialDefaultDuration

	for phys, raw := range lines {
		line := strings.TrimRight(raw, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "@") {
			key, value := splitDirective(line[1:])
			if key == "" {
				problems = append(problems, Problem{
					PhysLine: phys, Kind: "directive", Text: line,
					Message: "directive line has no key",
				})
				continue
			}
			key = keyCaser.String(key)
			if key == "default_duration" {
				v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
				if err != nil || v <= 0 {
					problems = append(problems, Problem{
						PhysLine: phys, Kind: "duration", Text: value,
						Message: "default_duration is not a positive number; parser falls back to 1",
					})
					v = initialDefaultDuration
				}
				defaultDuration = v
				continue
			}
			if !isKnownKey(key) {
				msg := "unknown directive key (stored but ignored)"
				if sug := suggestKey(key); sug != "" {
					msg = fmt.Sprintf("unknown directive key; did you mean %q?", sug)
				}
				problems = append(problems, Problem{
					PhysLine: phys, Kind: "directive", Text: key, Message: msg,
				})
			}
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "#voice") {
			continue
		}
		for _, token := range strings.Fields(stripComment(line)) {
			if _, ok := DecodeToken(token, defaultDuration, 0); !ok {
				problems = append(problems, Problem{
					PhysLine: phys, Kind: "token", Text: token,
					Message: "token matches no note, rest, hold, or bar form; parser drops it",
				})
			}
		}
	}
	return problems
}

func isKnownKey(key string) bool {
	for _, k := range directiveKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Package placeholder protects game-engine format markers (printf tokens,
// {0}-style braces, <color=...> tags, escaped sequences) during machine
// translation by replacing them with numbered markers (__PH0__, __PH1__, …)
// that the service passes through untouched. After translation, Restore
// substitutes the originals back.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultPattern matches the token classes that must survive translation
// verbatim: escaped sequences, %MACRO_NAME tokens, printf-style specifiers,
// brace placeholders, and markup tags.
const DefaultPattern = `(\\[nt])|(%[A-Z][A-Z0-9_]+)|(%[-+0-9.#]*[a-zA-Z])|(\{[^}]+\})|(<[^>]+>)`

var markerRe = regexp.MustCompile(`__PH(\d+)__`)

// Masker finds and masks placeholder tokens under a configurable pattern.
type Masker struct {
	re *regexp.Regexp
}

// New compiles pattern into a Masker. An empty pattern selects DefaultPattern.
func New(pattern string) (*Masker, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid placeholder pattern: %w", err)
	}
	return &Masker{re: re}, nil
}

// Mask replaces every placeholder token in text with __PHn__ markers, in
// order of appearance. It returns the masked text and the captured tokens
// so Restore can put them back.
func (m *Masker) Mask(text string) (string, []string) {
	var tokens []string
	masked := m.re.ReplaceAllStringFunc(text, func(match string) string {
		id := fmt.Sprintf("__PH%d__", len(tokens))
		tokens = append(tokens, match)
		return id
	})
	return masked, tokens
}

// Tokens returns every placeholder token found in text, in order of
// appearance. Used by the QA gate to compare source and candidate.
func (m *Masker) Tokens(text string) []string {
	return m.re.FindAllString(text, -1)
}

// Restore substitutes __PHn__ markers in text back with the originals
// captured by Mask. Markers the translator dropped simply don't get
// restored; out-of-range indices are left as-is.
func Restore(text string, tokens []string) string {
	return markerRe.ReplaceAllStringFunc(text, func(match string) string {
		sub := markerRe.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(tokens) {
			return match
		}
		return tokens[idx]
	})
}

// Markers returns the __PHn__ markers present in text, in order of
// appearance. Comparing marker sequences between masked source and masked
// translation detects dropped or duplicated tokens before Restore runs.
func Markers(text string) []string {
	return markerRe.FindAllString(text, -1)
}

// Package qa gates candidate translations before they are written back into
// the table. The checks are structural, not linguistic: a candidate that
// drops a format placeholder or comes back empty would break the game at
// runtime, so it is rejected and the row stays untranslated.
package qa

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/valpere/tabtran/internal/detector"
	"github.com/valpere/tabtran/internal/placeholder"
)

// Reason is a stable code for why a candidate was rejected, recorded in the
// run summary.
type Reason string

const (
	ReasonEmpty               Reason = "empty_translation"
	ReasonPlaceholderMismatch Reason = "placeholder_mismatch"
	ReasonPassthrough         Reason = "untranslated_passthrough"
)

// Result is the outcome of validating one candidate.
type Result struct {
	OK     bool
	Reason Reason
	Detail string
}

func accept() Result {
	return Result{OK: true}
}

func reject(reason Reason, detail string) Result {
	return Result{Reason: reason, Detail: detail}
}

// Validator applies the QA rules in order; the first failing rule wins.
type Validator struct {
	masker     *placeholder.Masker
	det        *detector.Detector
	targetLang string
}

// Option configures a Validator.
type Option func(*Validator)

// WithPassthroughCheck enables the strict pass-through rule: a candidate
// identical to its source is rejected when the source's detected language
// differs from targetLang. det may be shared with other components.
func WithPassthroughCheck(det *detector.Detector, targetLang string) Option {
	return func(v *Validator) {
		v.det = det
		v.targetLang = targetLang
	}
}

// New creates a Validator using masker's pattern to define protected tokens.
func New(masker *placeholder.Masker, opts ...Option) *Validator {
	v := &Validator{masker: masker}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate decides whether candidate is an acceptable translation of source.
// Rules, in order:
//  1. Reject an empty/whitespace-only candidate for a non-empty source.
//  2. Reject when the multiset of placeholder tokens in source is not
//     exactly reproduced in candidate.
//  3. Optionally reject a candidate identical to an alphabetic source whose
//     detected language differs from the target language.
func (v *Validator) Validate(source, candidate string) Result {
	src := strings.TrimSpace(source)
	cand := strings.TrimSpace(candidate)

	if src != "" && cand == "" {
		return reject(ReasonEmpty, "translation is empty")
	}

	if detail, ok := v.tokensMatch(source, candidate); !ok {
		return reject(ReasonPlaceholderMismatch, detail)
	}

	if v.det != nil {
		if detail, ok := v.passthroughCheck(src, cand); !ok {
			return reject(ReasonPassthrough, detail)
		}
	}

	return accept()
}

// tokensMatch compares the placeholder token multisets of source and
// candidate. Comparison is NFC-normalized so visually identical tokens
// composed differently still match.
func (v *Validator) tokensMatch(source, candidate string) (string, bool) {
	srcTokens := normalizeTokens(v.masker.Tokens(source))
	candTokens := normalizeTokens(v.masker.Tokens(candidate))

	if len(srcTokens) != len(candTokens) {
		return fmt.Sprintf("source has %d placeholder tokens, translation has %d",
			len(srcTokens), len(candTokens)), false
	}
	for i := range srcTokens {
		if srcTokens[i] != candTokens[i] {
			return fmt.Sprintf("placeholder token %q missing from translation", srcTokens[i]), false
		}
	}
	return "", true
}

// passthroughCheck rejects a candidate returned verbatim when the source is
// reliably detectable as a language other than the target. Short strings
// ("OK", "HP") are legitimately identical across languages and pass.
func (v *Validator) passthroughCheck(src, cand string) (string, bool) {
	if src == "" || src != cand {
		return "", true
	}
	if !containsLetter(src) || !detector.Reliable(src) {
		return "", true
	}
	detected, ok := v.det.DetectISO(src)
	if !ok {
		return "", true
	}
	if strings.EqualFold(detected, v.targetLang) {
		return "", true
	}
	return fmt.Sprintf("translation equals %s source text", detected), false
}

// normalizeTokens NFC-normalizes and sorts a copy of tokens so comparison is
// order-insensitive (translators may legitimately reorder placeholders).
func normalizeTokens(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = norm.NFC.String(tok)
	}
	sort.Strings(out)
	return out
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

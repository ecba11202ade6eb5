// Package detector wraps lingua-go language detection for source-language
// auto-detection and for the pass-through QA check.
package detector

import (
	lingua "github.com/pemistahl/lingua-go"
)

// MinReliableRunes is the text length below which detection results are too
// unreliable to act on. Callers should skip detection-based decisions for
// shorter texts.
const MinReliableRunes = 20

// Detector detects the language of a text. Building one is expensive
// (lingua loads its language models); reuse the instance.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	det := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: det}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the ISO 639-1 code of the detected language, e.g. "EN".
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// Reliable reports whether text is long enough for detection to be trusted.
func Reliable(text string) bool {
	return len([]rune(text)) >= MinReliableRunes
}

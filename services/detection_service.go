package services

import (
	"context"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// LinguaDetector detects the languages GramCare answers in. lingua has no Assamese model;
// Assamese script is caught earlier by the script heuristic.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

func NewLinguaDetector() *LinguaDetector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.Hindi, lingua.Bengali, lingua.Telugu).
		WithMinimumRelativeDistance(0.1).
		Build()
	return &LinguaDetector{detector: detector}
}

// Detect returns a lowercase ISO 639-1 code. Model loading can be slow, so ctx bounds the wait.
func (d *LinguaDetector) Detect(ctx context.Context, text string) (string, error) {
	type result struct {
		lang lingua.Language
		ok   bool
	}

	done := make(chan result, 1)
	go func() {
		lang, ok := d.detector.DetectLanguageOf(text)
		done <- result{lang: lang, ok: ok}
	}()

	select {
	case <-ctx.Done():
		return "", external("detection", ctx.Err())
	case r := <-done:
		if !r.ok {
			return "", external("detection", ErrUnsupportedLanguage)
		}
		return strings.ToLower(r.lang.IsoCode639_1().String()), nil
	}
}

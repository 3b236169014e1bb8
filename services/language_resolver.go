package services

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"gramcare-backend/models"
	"gramcare-backend/utils"
)

// detectionMinLength is the rune count above which the external detector is consulted.
const detectionMinLength = 10

// LanguageAuto asks the resolver to work the language out itself.
const LanguageAuto = "auto"

var SupportedLanguages = []models.Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "hi", Name: "Hindi", NativeName: "हिंदी"},
	{Code: "bn", Name: "Bengali", NativeName: "বাংলা"},
	{Code: "as", Name: "Assamese", NativeName: "অসমীয়া"},
	{Code: "te", Name: "Telugu", NativeName: "తెలుగు"},
}

// IsSupportedLanguage reports whether code is one of SupportedLanguages.
func IsSupportedLanguage(code string) bool {
	for _, l := range SupportedLanguages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// languageStrategy returns a language code and true when it can decide.
type languageStrategy func(ctx context.Context, text string, sess *models.Session, explicit string) (string, bool)

type LanguageResolver struct {
	detector      LanguageDetector
	detectTimeout time.Duration
	strategies    []languageStrategy
}

// NewLanguageResolver builds a resolver. detector may be nil.
func NewLanguageResolver(detector LanguageDetector, detectTimeout time.Duration) *LanguageResolver {
	if detectTimeout <= 0 {
		detectTimeout = 3 * time.Second
	}
	r := &LanguageResolver{
		detector:      detector,
		detectTimeout: detectTimeout,
	}
	r.strategies = []languageStrategy{
		r.fromExplicit,
		r.fromScript,
		r.fromProfile,
		r.fromDetector,
	}
	return r
}

// Resolve picks the reply language for text and stores it on sess. It never fails.
func (r *LanguageResolver) Resolve(ctx context.Context, text string, sess *models.Session, explicit string) string {
	lang := defaultLanguage
	for _, strategy := range r.strategies {
		if code, ok := strategy(ctx, text, sess, explicit); ok {
			lang = code
			break
		}
	}
	sess.Language = lang
	return lang
}

func (r *LanguageResolver) fromExplicit(_ context.Context, _ string, _ *models.Session, explicit string) (string, bool) {
	explicit = strings.ToLower(strings.TrimSpace(explicit))
	if explicit == "" || explicit == LanguageAuto || !IsSupportedLanguage(explicit) {
		return "", false
	}
	return explicit, true
}

func (r *LanguageResolver) fromScript(_ context.Context, text string, sess *models.Session, _ string) (string, bool) {
	code, ok := utils.DetectScriptLanguage(text)
	if !ok {
		return "", false
	}
	sess.Profile.PreferredLanguage = code
	return code, true
}

func (r *LanguageResolver) fromProfile(_ context.Context, _ string, sess *models.Session, _ string) (string, bool) {
	if IsSupportedLanguage(sess.Profile.PreferredLanguage) {
		return sess.Profile.PreferredLanguage, true
	}
	return "", false
}

func (r *LanguageResolver) fromDetector(ctx context.Context, text string, sess *models.Session, _ string) (string, bool) {
	if r.detector == nil || utf8.RuneCountInString(strings.TrimSpace(text)) <= detectionMinLength {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, r.detectTimeout)
	defer cancel()

	code, err := r.detector.Detect(ctx, text)
	if err != nil {
		log.Printf("[LanguageResolver.fromDetector] detection failed: %v", err)
		return "", false
	}
	code = strings.ToLower(code)
	if !IsSupportedLanguage(code) {
		return "", false
	}
	sess.Profile.PreferredLanguage = code
	return code, true
}

package services

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// LLMTranslator translates through a chat completion provider.
type LLMTranslator struct {
	provider AIProvider
}

func NewLLMTranslator(provider AIProvider) *LLMTranslator {
	return &LLMTranslator{provider: provider}
}

func (t *LLMTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if t.provider == nil {
		return "", external("translation", ErrNotConfigured)
	}
	if !IsSupportedLanguage(targetLanguage) {
		return "", external("translation", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, targetLanguage))
	}

	system := fmt.Sprintf("Translate the user's message from English to %s. "+
		"Keep numbers, phone numbers and quoted commands unchanged. Reply with the translation only.",
		languageName(targetLanguage))

	out, err := t.provider.Complete(ctx, system, text)
	if err != nil {
		return "", external("translation", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", external("translation", ErrEmptyResponse)
	}
	return out, nil
}

// CachedTranslator serves repeated translations from a cache.
type CachedTranslator struct {
	next  Translator
	cache TranslationCache
}

func NewCachedTranslator(next Translator, cache TranslationCache) *CachedTranslator {
	return &CachedTranslator{next: next, cache: cache}
}

func (t *CachedTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if cached, ok, err := t.cache.Get(ctx, text, targetLanguage); err != nil {
		log.Printf("[CachedTranslator.Translate] cache read failed: %v", err)
	} else if ok {
		return cached, nil
	}

	translated, err := t.next.Translate(ctx, text, targetLanguage)
	if err != nil {
		return "", err
	}

	if err := t.cache.Set(ctx, text, targetLanguage, translated); err != nil {
		log.Printf("[CachedTranslator.Translate] cache write failed: %v", err)
	}
	return translated, nil
}

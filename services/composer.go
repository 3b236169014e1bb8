package services

import (
	"context"
	"log"
	"strings"
	"time"

	"gramcare-backend/models"
)

// Reply sources, recorded on transcripts and used for confidence.
const (
	SourceAI       = "ai"
	SourceFAQ      = "faq"
	SourceTemplate = "template"
	SourceCommand  = "command"
	SourceError    = "error"
)

// Composition is a reply text and where it came from.
type Composition struct {
	Text   string
	Source string
}

type ComposerConfig struct {
	AIEnabled          bool
	AIPreference       string
	AITimeout          time.Duration
	TranslationTimeout time.Duration
}

// composeStrategy returns a reply and true when it can answer the turn.
type composeStrategy func(ctx context.Context, text string, intent models.IntentContext, lang string) (Composition, bool)

type ResponseComposer struct {
	ai         AIResponder
	faq        FAQSource
	translator Translator
	cfg        ComposerConfig
	strategies []composeStrategy
}

// NewResponseComposer wires the reply strategies. Any collaborator may be nil.
func NewResponseComposer(ai AIResponder, faq FAQSource, translator Translator, cfg ComposerConfig) *ResponseComposer {
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 15 * time.Second
	}
	if cfg.TranslationTimeout <= 0 {
		cfg.TranslationTimeout = 5 * time.Second
	}
	if cfg.AIPreference == "" {
		cfg.AIPreference = "auto"
	}

	c := &ResponseComposer{
		ai:         ai,
		faq:        faq,
		translator: translator,
		cfg:        cfg,
	}
	c.strategies = []composeStrategy{
		c.fromAI,
		c.fromFAQ,
		c.fromTemplate,
	}
	return c
}

// Compose produces the reply for one classified message, disclaimer included.
func (c *ResponseComposer) Compose(ctx context.Context, text string, intent models.IntentContext, lang string) Composition {
	for _, strategy := range c.strategies {
		if out, ok := strategy(ctx, text, intent, lang); ok {
			return out
		}
	}
	// fromTemplate always answers; this is unreachable in practice.
	return Composition{Text: CategoryTemplate(intent) + Disclaimer(lang), Source: SourceTemplate}
}

// Translate renders English text in lang. Any failure returns text unchanged.
func (c *ResponseComposer) Translate(ctx context.Context, text, lang string) string {
	if lang == "" || lang == "en" || c.translator == nil {
		return text
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.TranslationTimeout)
	defer cancel()

	translated, err := c.translator.Translate(ctx, text, lang)
	if err != nil {
		log.Printf("[ResponseComposer.Translate] falling back to English for %s: %v", lang, err)
		return text
	}
	if strings.TrimSpace(translated) == "" {
		return text
	}
	return translated
}

func (c *ResponseComposer) fromAI(ctx context.Context, text string, _ models.IntentContext, lang string) (Composition, bool) {
	if !c.cfg.AIEnabled || c.ai == nil {
		return Composition{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.AITimeout)
	defer cancel()

	result, err := c.ai.Respond(ctx, text, lang, c.cfg.AIPreference)
	if err != nil {
		log.Printf("[ResponseComposer.fromAI] AI unavailable, using templates: %v", err)
		return Composition{}, false
	}
	if result == nil || !result.Success || strings.TrimSpace(result.Response) == "" {
		return Composition{}, false
	}

	return Composition{Text: strings.TrimSpace(result.Response) + Disclaimer(lang), Source: SourceAI}, true
}

// fromFAQ only replaces the generic reply; specific categories keep their templates.
func (c *ResponseComposer) fromFAQ(_ context.Context, text string, intent models.IntentContext, lang string) (Composition, bool) {
	if c.faq == nil || intent.Category != models.CategoryGeneral {
		return Composition{}, false
	}

	entry, ok := c.faq.FindBestMatch(text)
	if !ok {
		return Composition{}, false
	}
	answer := models.LocalizedText(entry.Answer, lang)
	if answer == "" {
		return Composition{}, false
	}

	return Composition{Text: answer + Disclaimer(lang), Source: SourceFAQ}, true
}

func (c *ResponseComposer) fromTemplate(ctx context.Context, _ string, intent models.IntentContext, lang string) (Composition, bool) {
	base := CategoryTemplate(intent)
	return Composition{Text: c.Translate(ctx, base, lang) + Disclaimer(lang), Source: SourceTemplate}, true
}

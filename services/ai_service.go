package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"gramcare-backend/config"
	"gramcare-backend/models"
)

const geminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// AIProvider completes a single prompt with a system instruction.
type AIProvider interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// openAIProvider talks to OpenAI or any OpenAI-compatible endpoint such as Gemini.
type openAIProvider struct {
	name        string
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

func newOpenAIProvider(name, apiKey, baseURL, model string, maxTokens int, temperature float64) *openAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openAIProvider{
		name:        name,
		client:      openai.NewClient(opts...),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: temperature,
	}
}

func (p *openAIProvider) Name() string { return p.name }

func (p *openAIProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(p.temperature),
	}
	if p.maxTokens > 0 {
		params.MaxTokens = openai.Int(p.maxTokens)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s completion: %w", p.name, ErrEmptyResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type anthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func newAnthropicProvider(apiKey, model string, maxTokens int) *anthropicProvider {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &anthropicProvider{
		client:    anthropic.NewClient(anthropicoption.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic completion: %w", ErrEmptyResponse)
	}
	return strings.TrimSpace(b.String()), nil
}

// AIService answers health questions through the configured providers, in order.
type AIService struct {
	providers []AIProvider
}

// NewAIService registers a provider for every API key present in cfg.
func NewAIService(cfg config.AIConfig) *AIService {
	s := &AIService{}
	if cfg.GeminiAPIKey != "" {
		s.providers = append(s.providers, newOpenAIProvider("gemini", cfg.GeminiAPIKey, geminiOpenAIBaseURL, cfg.GeminiModel, cfg.MaxTokens, cfg.Temperature))
	}
	if cfg.OpenAIAPIKey != "" {
		s.providers = append(s.providers, newOpenAIProvider("openai", cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.MaxTokens, cfg.Temperature))
	}
	if cfg.AnthropicAPIKey != "" {
		s.providers = append(s.providers, newAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.MaxTokens))
	}
	return s
}

// NewAIServiceWithProviders builds a service from explicit providers.
func NewAIServiceWithProviders(providers ...AIProvider) *AIService {
	return &AIService{providers: providers}
}

func (s *AIService) Enabled() bool {
	return len(s.providers) > 0
}

// Providers returns the registered providers in try order.
func (s *AIService) Providers() []AIProvider {
	return append([]AIProvider(nil), s.providers...)
}

// Respond asks the preferred provider first and falls through to the others.
func (s *AIService) Respond(ctx context.Context, text, language, providerPreference string) (*models.AIResult, error) {
	if len(s.providers) == 0 {
		return nil, external("ai", ErrNotConfigured)
	}

	system := healthSystemPrompt(language)
	var lastErr error
	for _, p := range s.ordered(providerPreference) {
		reply, err := p.Complete(ctx, system, text)
		if err == nil && reply != "" {
			return &models.AIResult{Success: true, Response: reply, Provider: p.Name()}, nil
		}
		if err == nil {
			err = ErrEmptyResponse
		}
		log.Printf("[AIService.Respond] provider %s failed: %v", p.Name(), err)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, external("ai", lastErr)
}

func (s *AIService) ordered(preference string) []AIProvider {
	preference = strings.ToLower(strings.TrimSpace(preference))
	if preference == "" || preference == "auto" {
		return s.providers
	}

	out := make([]AIProvider, 0, len(s.providers))
	for _, p := range s.providers {
		if p.Name() == preference {
			out = append(out, p)
		}
	}
	for _, p := range s.providers {
		if p.Name() != preference {
			out = append(out, p)
		}
	}
	return out
}

func healthSystemPrompt(language string) string {
	return fmt.Sprintf("You are GramCare, a health information assistant for rural communities in India. "+
		"Answer in %s, in at most four short sentences of plain text. Give general, evidence-based guidance only, "+
		"never a diagnosis or a prescription. If the message describes an emergency, tell the user to call 108 "+
		"or go to the nearest hospital.", languageName(language))
}

// languageName returns the English name of a supported language code.
func languageName(code string) string {
	for _, l := range SupportedLanguages {
		if l.Code == code {
			return l.Name
		}
	}
	return "English"
}

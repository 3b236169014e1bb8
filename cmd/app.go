package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"gramcare-backend/config"
	"gramcare-backend/services"
	"gramcare-backend/utils"
)

// app holds the wired services of one process.
type app struct {
	sessions     *services.SessionStore
	cache        services.TranslationCache
	chatbot      *services.ChatbotService
	whatsapp     *services.WhatsAppService
	sms          *services.SMSService
	verification *services.VerificationService

	stopCh chan struct{}
}

// buildApp wires every service from cfg. transcripts may be nil.
func buildApp(ctx context.Context, cfg *config.Config, transcripts services.TranscriptStore) (*app, error) {
	knowledge, err := services.LoadKnowledgeBase(cfg.Data.FAQPath, cfg.Data.AlertPath)
	if err != nil {
		return nil, err
	}

	aiService := services.NewAIService(cfg.AI)

	cache, err := newTranslationCache(ctx, cfg.Translation)
	if err != nil {
		return nil, err
	}

	var translator services.Translator
	if providers := aiService.Providers(); cfg.Translation.Enabled && len(providers) > 0 {
		translator = services.NewCachedTranslator(services.NewLLMTranslator(providers[0]), cache)
	} else {
		log.Println("[buildApp] translation disabled, non-English replies fall back to English templates")
	}

	var detector services.LanguageDetector
	if cfg.Detection.Enabled {
		detector = services.NewLinguaDetector()
	}

	sessions := services.NewSessionStore(services.WithSessionTTL(cfg.Session.TTL))

	var aiResponder services.AIResponder
	if aiService.Enabled() {
		aiResponder = aiService
	}
	composer := services.NewResponseComposer(aiResponder, knowledge, translator, services.ComposerConfig{
		AIEnabled:          cfg.AI.Enabled,
		AIPreference:       cfg.AI.Preferred,
		AITimeout:          cfg.AI.Timeout,
		TranslationTimeout: cfg.Translation.Timeout,
	})

	chatbot := services.NewChatbotService(services.ChatbotDeps{
		Sessions:          sessions,
		Resolver:          services.NewLanguageResolver(detector, cfg.Detection.Timeout),
		Classifier:        utils.NewIntentClassifier(),
		Composer:          composer,
		Formatter:         services.NewChannelFormatter(),
		Alerts:            knowledge,
		Transcripts:       transcripts,
		TranscriptTimeout: cfg.Database.TranscriptTimeout,
	})

	sms := services.NewSMSService(cfg.SMS, cfg.DefaultCountryCode)
	var codeSender services.MessageSender
	if sms.Enabled() {
		codeSender = sms
	}

	verification := services.NewVerificationService(codeSender, services.VerificationConfig{
		CodeTTL:            cfg.Verification.CodeTTL,
		BcryptCost:         cfg.Verification.BcryptCost,
		JWTSecret:          cfg.JWT.Secret,
		TokenTTL:           time.Duration(cfg.JWT.ExpirationHours) * time.Hour,
		DefaultCountryCode: cfg.DefaultCountryCode,
	})

	return &app{
		sessions:     sessions,
		cache:        cache,
		chatbot:      chatbot,
		whatsapp:     services.NewWhatsAppService(cfg.WhatsApp, cfg.DefaultCountryCode),
		sms:          sms,
		verification: verification,
		stopCh:       make(chan struct{}),
	}, nil
}

func newTranslationCache(ctx context.Context, cfg config.TranslationConfig) (services.TranslationCache, error) {
	if cfg.CacheType != "redis" {
		return services.NewMemoryTranslationCache(cfg.CacheTTL), nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cache, err := services.ConnectRedisTranslationCache(ctx, cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("translation cache: %w", err)
	}
	log.Println("[buildApp] using redis translation cache")
	return cache, nil
}

// startMaintenance runs the session sweeper and the memory cache cleanup.
func (a *app) startMaintenance(interval time.Duration) {
	a.sessions.StartSweeper(interval)

	memCache, ok := a.cache.(*services.MemoryTranslationCache)
	if !ok {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := memCache.Cleanup(); n > 0 {
					log.Printf("[app.startMaintenance] dropped %d expired translations", n)
				}
			case <-a.stopCh:
				return
			}
		}
	}()
}

func (a *app) Close() {
	close(a.stopCh)
	a.chatbot.Wait()
	if err := a.sessions.Close(); err != nil {
		log.Printf("[app.Close] sessions: %v", err)
	}
	if err := a.cache.Close(); err != nil {
		log.Printf("[app.Close] translation cache: %v", err)
	}
}

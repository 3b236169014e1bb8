package services

import (
	"context"

	"gramcare-backend/models"
)

// Translator turns an English reply into the target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// LanguageDetector guesses the language code of free text.
type LanguageDetector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// AIResponder answers a health question with a generative model.
type AIResponder interface {
	Respond(ctx context.Context, text, language, providerPreference string) (*models.AIResult, error)
}

// FAQSource finds the best FAQ entry for a message.
type FAQSource interface {
	FindBestMatch(text string) (*models.FAQEntry, bool)
}

// AlertSource lists alerts whose location or affected areas match location.
type AlertSource interface {
	AlertsFor(location string) []models.AlertEntry
}

// TranscriptStore records finished turns.
type TranscriptStore interface {
	Save(ctx context.Context, record *models.TranscriptRecord) error
}

// MessageSender delivers one text message to a phone number.
type MessageSender interface {
	SendTextMessage(ctx context.Context, to, body string) error
}

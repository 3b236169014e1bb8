package services

import (
	"context"
	"log"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"

	"gramcare-backend/models"
	"gramcare-backend/utils"
)

// turnState names the stages an inbound message passes through.
type turnState string

const (
	stateReceived         turnState = "received"
	stateLanguageResolved turnState = "language_resolved"
	stateClassified       turnState = "classified"
	stateComposed         turnState = "composed"
	stateFormatted        turnState = "formatted"
	stateSessionUpdated   turnState = "session_updated"
	stateSent             turnState = "sent"
	stateErrorReplied     turnState = "error_replied"
)

const defaultAlertLocation = "all"

type ChatbotDeps struct {
	Sessions          *SessionStore
	Resolver          *LanguageResolver
	Classifier        *utils.IntentClassifier
	Composer          *ResponseComposer
	Formatter         *ChannelFormatter
	Alerts            AlertSource
	Transcripts       TranscriptStore
	TranscriptTimeout time.Duration
}

// ChatbotService routes one inbound message from any channel to a formatted reply.
type ChatbotService struct {
	sessions          *SessionStore
	resolver          *LanguageResolver
	classifier        *utils.IntentClassifier
	composer          *ResponseComposer
	formatter         *ChannelFormatter
	alerts            AlertSource
	transcripts       TranscriptStore
	transcriptTimeout time.Duration

	pending sync.WaitGroup
}

func NewChatbotService(deps ChatbotDeps) *ChatbotService {
	s := &ChatbotService{
		sessions:          deps.Sessions,
		resolver:          deps.Resolver,
		classifier:        deps.Classifier,
		composer:          deps.Composer,
		formatter:         deps.Formatter,
		alerts:            deps.Alerts,
		transcripts:       deps.Transcripts,
		transcriptTimeout: deps.TranscriptTimeout,
	}
	if s.sessions == nil {
		s.sessions = NewSessionStore()
	}
	if s.resolver == nil {
		s.resolver = NewLanguageResolver(nil, 0)
	}
	if s.classifier == nil {
		s.classifier = utils.NewIntentClassifier()
	}
	if s.composer == nil {
		s.composer = NewResponseComposer(nil, nil, nil, ComposerConfig{})
	}
	if s.formatter == nil {
		s.formatter = NewChannelFormatter()
	}
	if s.transcriptTimeout <= 0 {
		s.transcriptTimeout = 5 * time.Second
	}
	return s
}

// turn is the working state of one inbound message.
type turn struct {
	channel    models.MessageChannel
	key        string
	text       string
	state      turnState
	session    models.Session
	language   string
	intent     *models.IntentContext
	reply      Composition
	startedAt  time.Time
	identifier string
}

// HandleInboundMessage runs one message through language resolution, classification,
// composition and formatting, and records the turn on the sender's session.
// It always returns a payload; internal failures become the apology reply.
func (s *ChatbotService) HandleInboundMessage(ctx context.Context, channel models.MessageChannel, identifier, rawText, explicitLanguage string) (payload *models.ChannelPayload) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		err := validationError("missing sender identifier on %s", channel)
		log.Printf("[ChatbotService.HandleInboundMessage] %v", err)
		return s.formatter.Format("A sender identifier is required.", channel, FormatMeta{Failed: true, Error: err.Error()})
	}

	t := &turn{
		channel:    channel,
		key:        SessionKey(channel, identifier),
		text:       strings.TrimSpace(rawText),
		state:      stateReceived,
		startedAt:  time.Now(),
		identifier: identifier,
	}

	unlock := s.sessions.Lock(t.key)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ChatbotService.HandleInboundMessage] panic in state %s for %s: %v\n%s", t.state, t.key, r, debug.Stack())
			payload = s.apology(t)
		}
	}()

	t.session = s.sessions.Get(t.key)

	if reply, ok := s.handleCommand(ctx, t, explicitLanguage); ok {
		t.reply = reply
	} else {
		s.compose(ctx, t, explicitLanguage)
	}
	t.advance(stateComposed)

	payload = s.formatter.Format(t.reply.Text, channel, FormatMeta{
		Language:  t.language,
		Intent:    t.intent,
		Source:    t.reply.Source,
		SessionID: t.key,
	})
	t.advance(stateFormatted)

	t.session.AppendTurn(t.text, t.reply.Text)
	s.sessions.Update(t.key, models.UpdateFrom(t.session))
	t.advance(stateSessionUpdated)

	s.saveTranscript(t, false)
	t.advance(stateSent)

	log.Printf("[ChatbotService.HandleInboundMessage] %s replied via %s in %s (%s, %v)", t.key, t.reply.Source, t.language, categoryOf(t.intent), time.Since(t.startedAt))
	return payload
}

// compose resolves the language, classifies and builds the reply for a non-command message.
func (s *ChatbotService) compose(ctx context.Context, t *turn, explicitLanguage string) {
	t.language = s.resolver.Resolve(ctx, t.text, &t.session, explicitLanguage)
	t.advance(stateLanguageResolved)

	if t.text == "" {
		t.reply = Composition{Text: WelcomeText(t.language), Source: SourceCommand}
		return
	}

	intent := s.classifier.Classify(t.text)
	t.intent = &intent
	t.advance(stateClassified)

	t.reply = s.composer.Compose(ctx, t.text, intent, t.language)
}

// handleCommand answers the literal commands hi, en, help and alerts [location], and bare greetings.
func (s *ChatbotService) handleCommand(ctx context.Context, t *turn, explicitLanguage string) (Composition, bool) {
	if location, ok := alertsLocation(t.text); ok {
		t.language = s.resolver.Resolve(ctx, "", &t.session, explicitLanguage)
		var alerts []models.AlertEntry
		if s.alerts != nil {
			alerts = s.alerts.AlertsFor(location)
		}
		return Composition{Text: AlertsText(alerts, location, t.language), Source: SourceCommand}, true
	}

	fields := strings.Fields(t.text)
	if len(fields) == 0 {
		return Composition{}, false
	}
	command := strings.ToLower(fields[0])

	switch {
	case len(fields) == 1 && (command == "hi" || command == "en"):
		t.session.Profile.PreferredLanguage = command
		t.session.Language = command
		t.language = command
		return Composition{Text: WelcomeText(command), Source: SourceCommand}, true

	case len(fields) == 1 && command == "help":
		t.language = s.resolver.Resolve(ctx, "", &t.session, explicitLanguage)
		text, native := helpText(t.language)
		if !native {
			text = s.composer.Translate(ctx, text, t.language)
		}
		return Composition{Text: text, Source: SourceCommand}, true

	case isGreeting(t.text):
		t.language = s.resolver.Resolve(ctx, t.text, &t.session, explicitLanguage)
		return Composition{Text: WelcomeText(t.language), Source: SourceCommand}, true
	}

	return Composition{}, false
}

const alertsCommand = "alerts"

// alertsLocation reports whether text starts with "alerts" and returns the location
// that follows it, or "all" when none is given.
func alertsLocation(text string) (string, bool) {
	if len(text) < len(alertsCommand) || !strings.EqualFold(text[:len(alertsCommand)], alertsCommand) {
		return "", false
	}
	rest := strings.TrimFunc(text[len(alertsCommand):], func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	if rest == "" {
		return defaultAlertLocation, true
	}
	return strings.Join(strings.Fields(rest), " "), true
}

var greetings = map[string]bool{
	"hello": true, "hello there": true, "hey": true, "hey there": true, "hi there": true,
	"hii": true, "good morning": true, "good afternoon": true, "good evening": true,
	"namaste": true, "namaskar": true, "नमस्ते": true, "नमस्कार": true,
}

// isGreeting matches a message that is only a greeting. A bare "hi" is the Hindi command.
func isGreeting(text string) bool {
	text = strings.TrimFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return greetings[strings.Join(strings.Fields(text), " ")]
}

func (s *ChatbotService) apology(t *turn) *models.ChannelPayload {
	t.state = stateErrorReplied
	t.reply = Composition{Text: ApologyMessage, Source: SourceError}
	s.saveTranscript(t, true)
	return s.formatter.Format(ApologyMessage, t.channel, FormatMeta{
		Language:  t.language,
		SessionID: t.key,
		Failed:    true,
		Error:     "internal error",
	})
}

// saveTranscript writes the turn in the background; failures are only logged.
func (s *ChatbotService) saveTranscript(t *turn, failed bool) {
	if s.transcripts == nil {
		return
	}

	record := &models.TranscriptRecord{
		TurnID:      ulid.Make().String(),
		SessionID:   t.key,
		Channel:     t.channel,
		UserMessage: t.text,
		BotResponse: t.reply.Text,
		Language:    t.language,
		Source:      t.reply.Source,
		Failed:      failed,
		Timestamp:   time.Now().UTC(),
	}
	if t.intent != nil {
		record.Category = t.intent.Category
		record.Urgency = t.intent.Urgency
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.transcriptTimeout)
		defer cancel()
		if err := s.transcripts.Save(ctx, record); err != nil {
			log.Printf("[ChatbotService.saveTranscript] %s: %v", record.SessionID, err)
		}
	}()
}

// Session returns a copy of the stored session for an identifier on channel.
func (s *ChatbotService) Session(channel models.MessageChannel, identifier string) models.Session {
	return s.sessions.Get(SessionKey(channel, identifier))
}

// ActiveSessions reports how many sessions are held in memory.
func (s *ChatbotService) ActiveSessions() int {
	return s.sessions.Len()
}

// Classify exposes the intent classifier to the HTTP and CLI layers.
func (s *ChatbotService) Classify(text string) models.IntentContext {
	return s.classifier.Classify(text)
}

// Keywords returns the classifier keywords for a category.
func (s *ChatbotService) Keywords(category models.Category) []string {
	return s.classifier.Keywords(category)
}

// Wait blocks until background transcript writes have finished.
func (s *ChatbotService) Wait() {
	s.pending.Wait()
}

func (t *turn) advance(next turnState) {
	t.state = next
}

func categoryOf(intent *models.IntentContext) models.Category {
	if intent == nil {
		return "command"
	}
	return intent.Category
}

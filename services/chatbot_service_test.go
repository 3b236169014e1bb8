package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"gramcare-backend/models"
)

func newTestChatbot(t *testing.T, deps ChatbotDeps) *ChatbotService {
	t.Helper()
	if deps.Alerts == nil {
		deps.Alerts = testKnowledgeBase(t)
	}
	return NewChatbotService(deps)
}

func TestHandleInboundMessageScenarios(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantContains string
		wantCategory models.Category
		wantUrgency  models.Urgency
	}{
		{name: "symptoms", text: "I have fever and cough", wantContains: "fever, cough", wantCategory: models.CategorySymptoms, wantUrgency: models.UrgencyLow},
		{name: "emergency", text: "emergency help hospital", wantContains: "108", wantCategory: models.CategoryEmergency, wantUrgency: models.UrgencyHigh},
		{name: "emergency beats symptoms", text: "severe fever and cough and headache", wantContains: "108", wantCategory: models.CategoryEmergency, wantUrgency: models.UrgencyHigh},
		{name: "general", text: "what can you do", wantContains: "I'm here to help", wantCategory: models.CategoryGeneral, wantUrgency: models.UrgencyLow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestChatbot(t, ChatbotDeps{})
			p := s.HandleInboundMessage(context.Background(), models.ChannelWeb, "user-1", tc.text, "")

			if !p.Success || p.Error != "" {
				t.Fatalf("turn failed: %+v", p)
			}
			if !strings.Contains(p.Response, tc.wantContains) {
				t.Fatalf("response %q does not contain %q", p.Response, tc.wantContains)
			}
			if !strings.HasSuffix(p.Response, Disclaimer("en")) {
				t.Fatalf("response %q does not end with the disclaimer", p.Response)
			}
			if p.Category != tc.wantCategory || p.Urgency != tc.wantUrgency {
				t.Fatalf("category %q urgency %q, want %q %q", p.Category, p.Urgency, tc.wantCategory, tc.wantUrgency)
			}
			if p.SessionID != "web:user-1" || p.Language != "en" || p.Channel != models.ChannelWeb {
				t.Fatalf("got %+v", p)
			}
		})
	}
}

func TestHandleInboundMessageLanguageCommand(t *testing.T) {
	s := newTestChatbot(t, ChatbotDeps{})
	ctx := context.Background()

	p := s.HandleInboundMessage(ctx, models.ChannelSMS, "+919876543210", "hi", "")
	if p.Response != WelcomeText("hi") || p.Language != "hi" || p.Confidence != 1.0 {
		t.Fatalf("got %+v, want the Hindi welcome", p)
	}

	sess := s.Session(models.ChannelSMS, "+919876543210")
	if sess.Profile.PreferredLanguage != "hi" || sess.Language != "hi" {
		t.Fatalf("session %+v does not prefer Hindi", sess)
	}

	// later English text keeps the chosen language
	p = s.HandleInboundMessage(ctx, models.ChannelSMS, "+919876543210", "I have fever", "")
	if p.Language != "hi" || !strings.HasSuffix(p.Response, Disclaimer("hi")) {
		t.Fatalf("got language %q response %q", p.Language, p.Response)
	}

	p = s.HandleInboundMessage(ctx, models.ChannelSMS, "+919876543210", "EN", "")
	if p.Response != WelcomeText("en") || p.Language != "en" {
		t.Fatalf("got %+v, want the English welcome", p)
	}
}

func TestHandleInboundMessageExplicitLanguage(t *testing.T) {
	s := newTestChatbot(t, ChatbotDeps{})
	p := s.HandleInboundMessage(context.Background(), models.ChannelWeb, "u", "I have a cough", "hi")
	if p.Language != "hi" {
		t.Fatalf("Language = %q, want hi", p.Language)
	}
	// explicit choices are not remembered
	if got := s.Session(models.ChannelWeb, "u").Profile.PreferredLanguage; got != "" {
		t.Fatalf("PreferredLanguage = %q, want empty", got)
	}
}

func TestHandleInboundMessageScriptDetection(t *testing.T) {
	s := newTestChatbot(t, ChatbotDeps{})
	p := s.HandleInboundMessage(context.Background(), models.ChannelWhatsApp, "+911111111111", "मुझे बुखार है", "")
	if p.Language != "hi" || p.Category != models.CategoryGeneral {
		t.Fatalf("got language %q category %q", p.Language, p.Category)
	}
	if got := s.Session(models.ChannelWhatsApp, "+911111111111").Profile.PreferredLanguage; got != "hi" {
		t.Fatalf("PreferredLanguage = %q, want hi", got)
	}
}

func TestHandleInboundMessageEmptyText(t *testing.T) {
	s := newTestChatbot(t, ChatbotDeps{})
	p := s.HandleInboundMessage(context.Background(), models.ChannelWeb, "u", "   ", "")
	if !p.Success || p.Response != WelcomeText("en") || p.Category != "" {
		t.Fatalf("got %+v, want the welcome text", p)
	}
}

func TestHandleInboundMessageMissingIdentifier(t *testing.T) {
	s := newTestChatbot(t, ChatbotDeps{})
	p := s.HandleInboundMessage(context.Background(), models.ChannelSMS, "  ", "hello", "")
	if p.Success || !strings.Contains(p.Error, ErrValidation.Error()) {
		t.Fatalf("got %+v, want a validation failure", p)
	}
	if s.ActiveSessions() != 0 {
		t.Fatalf("a session was created for an empty identifier")
	}
}

func TestHandleInboundMessageHelp(t *testing.T) {
	tr := &stubTranslator{}
	s := newTestChatbot(t, ChatbotDeps{Composer: NewResponseComposer(nil, nil, tr, ComposerConfig{})})
	ctx := context.Background()

	p := s.HandleInboundMessage(ctx, models.ChannelWeb, "u", "help", "")
	if p.Response != helpTemplates["en"] {
		t.Fatalf("got %q", p.Response)
	}

	p = s.HandleInboundMessage(ctx, models.ChannelWeb, "u", "help", "te")
	if !strings.HasPrefix(p.Response, "[te] ") || tr.calls != 1 {
		t.Fatalf("got %q, want a translated help text", p.Response)
	}

	p = s.HandleInboundMessage(ctx, models.ChannelWeb, "u", "help", "hi")
	if p.Response != helpTemplates["hi"] || tr.calls != 1 {
		t.Fatalf("got %q, want the native Hindi help text", p.Response)
	}
}

func TestHandleInboundMessageAlerts(t *testing.T) {
	s := newTestChatbot(t, ChatbotDeps{})
	ctx := context.Background()

	tests := []struct {
		text  string
		want  []string
		lines int
	}{
		{text: "alerts", want: []string{"Health alerts for all:", "1. ", "2. "}, lines: 3},
		{text: "alerts delhi", want: []string{"Health alerts for delhi:", "Dengue"}, lines: 2},
		{text: "Alerts Navi Mumbai", want: []string{"leptospirosis"}, lines: 2},
		{text: "alerts chennai", want: []string{"No active health alerts for chennai."}, lines: 1},
		{text: "alerts, delhi", want: []string{"Health alerts for delhi:", "Dengue"}, lines: 2},
		{text: "alerts:delhi", want: []string{"Health alerts for delhi:", "Dengue"}, lines: 2},
		{text: "alertsdelhi", want: []string{"Health alerts for delhi:", "Dengue"}, lines: 2},
		{text: "ALERTS  delhi!", want: []string{"Health alerts for delhi:", "Dengue"}, lines: 2},
		{text: "alerts?", want: []string{"Health alerts for all:"}, lines: 3},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			p := s.HandleInboundMessage(ctx, models.ChannelSMS, "+912222222222", tc.text, "")
			for _, w := range tc.want {
				if !strings.Contains(p.Response, w) {
					t.Fatalf("response %q does not contain %q", p.Response, w)
				}
			}
			if got := len(strings.Split(p.Response, "\n")); got != tc.lines {
				t.Fatalf("response has %d lines, want %d: %q", got, tc.lines, p.Response)
			}
			if strings.Contains(p.Response, "Disclaimer") {
				t.Fatalf("command reply carries the disclaimer")
			}
		})
	}
}

func TestHandleInboundMessageGreeting(t *testing.T) {
	s := newTestChatbot(t, ChatbotDeps{})
	ctx := context.Background()

	tests := []struct {
		text string
		want string
	}{
		{text: "Hello", want: WelcomeText("en")},
		{text: "hey!", want: WelcomeText("en")},
		{text: "Good morning", want: WelcomeText("en")},
		{text: "namaste", want: WelcomeText("en")},
		{text: "नमस्ते", want: WelcomeText("hi")},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			p := s.HandleInboundMessage(ctx, models.ChannelWeb, "greeter-"+tc.text, tc.text, "")
			if p.Response != tc.want || p.Confidence != 1.0 {
				t.Fatalf("got %+v, want the welcome text", p)
			}
		})
	}

	p := s.HandleInboundMessage(ctx, models.ChannelSMS, "+919812345678", "Hello", "")
	if !strings.HasPrefix(p.Response, "Hello! I'm GramCare") || strings.Contains(p.Response, "Disclaimer") {
		t.Fatalf("SMS greeting got %q", p.Response)
	}

	p = s.HandleInboundMessage(ctx, models.ChannelSMS, "+919812345678", "hello, I have fever", "")
	if p.Category != models.CategorySymptoms {
		t.Fatalf("a greeting with a question was treated as a greeting: %+v", p)
	}

	// a greeting answers in the language already chosen for the session
	s.HandleInboundMessage(ctx, models.ChannelWeb, "hindi-user", "hi", "")
	if p := s.HandleInboundMessage(ctx, models.ChannelWeb, "hindi-user", "hello", ""); p.Response != WelcomeText("hi") {
		t.Fatalf("got %q, want the Hindi welcome", p.Response)
	}
}

func TestHandleInboundMessageHistoryCap(t *testing.T) {
	s := newTestChatbot(t, ChatbotDeps{})
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		s.HandleInboundMessage(ctx, models.ChannelWeb, "u", fmt.Sprintf("question %d about fever", i), "")
	}

	history := s.Session(models.ChannelWeb, "u").History
	if len(history) != models.MaxHistory {
		t.Fatalf("len(History) = %d, want %d", len(history), models.MaxHistory)
	}
	if history[0].Role != models.RoleUser || history[0].Message != "question 3 about fever" {
		t.Fatalf("oldest kept entry = %+v", history[0])
	}
	if last := history[len(history)-1]; last.Role != models.RoleAssistant || !strings.Contains(last.Message, "fever") {
		t.Fatalf("newest entry = %+v", last)
	}
}

func TestHandleInboundMessageChannelsAreSeparate(t *testing.T) {
	s := newTestChatbot(t, ChatbotDeps{})
	ctx := context.Background()

	s.HandleInboundMessage(ctx, models.ChannelSMS, "+913333333333", "hi", "")
	p := s.HandleInboundMessage(ctx, models.ChannelWhatsApp, "+913333333333", "I have fever", "")
	if p.Language != "en" {
		t.Fatalf("WhatsApp session picked up the SMS language: %q", p.Language)
	}
	if s.ActiveSessions() != 2 {
		t.Fatalf("ActiveSessions() = %d, want 2", s.ActiveSessions())
	}
}

func TestHandleInboundMessageSegmentsSMS(t *testing.T) {
	s := newTestChatbot(t, ChatbotDeps{})
	p := s.HandleInboundMessage(context.Background(), models.ChannelSMS, "+914444444444", "emergency", "")
	if len(p.Segments) < 2 {
		t.Fatalf("got %d segments for a long reply", len(p.Segments))
	}
	if strings.Join(p.Segments, " ") != p.Response {
		t.Fatalf("segments do not rejoin to the response")
	}
}

func TestHandleInboundMessageRecoversFromPanic(t *testing.T) {
	tests := []struct {
		name string
		deps ChatbotDeps
		text string
	}{
		{name: "alerts", deps: ChatbotDeps{Alerts: panickingAlerts{}}, text: "alerts delhi"},
		{name: "ai", deps: ChatbotDeps{Composer: NewResponseComposer(&stubAI{panics: true}, nil, nil, ComposerConfig{AIEnabled: true})}, text: "I have fever"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transcripts := &memoryTranscripts{}
			tc.deps.Transcripts = transcripts
			s := newTestChatbot(t, tc.deps)

			p := s.HandleInboundMessage(context.Background(), models.ChannelSMS, "+915555555555", tc.text, "")
			if p.Success || p.Response != ApologyMessage || p.Error == "" {
				t.Fatalf("got %+v, want the apology", p)
			}
			if len(p.Segments) != 1 {
				t.Fatalf("apology segments = %v", p.Segments)
			}

			// the identifier lock was released
			p = s.HandleInboundMessage(context.Background(), models.ChannelSMS, "+915555555555", "hi", "")
			if !p.Success {
				t.Fatalf("follow-up turn failed: %+v", p)
			}

			s.Wait()
			records := transcripts.all()
			if len(records) != 2 || !records[0].Failed && !records[1].Failed {
				t.Fatalf("transcripts = %+v, want one failed turn", records)
			}
		})
	}
}

func TestHandleInboundMessageTranscripts(t *testing.T) {
	transcripts := &memoryTranscripts{}
	s := newTestChatbot(t, ChatbotDeps{Transcripts: transcripts})

	s.HandleInboundMessage(context.Background(), models.ChannelWeb, "u", "tell me about malaria", "")
	s.Wait()

	records := transcripts.all()
	if len(records) != 1 {
		t.Fatalf("got %d transcripts, want 1", len(records))
	}
	r := records[0]
	if r.SessionID != "web:u" || r.Category != models.CategoryDiseaseInfo || r.Source != SourceTemplate || r.TurnID == "" {
		t.Fatalf("got %+v", r)
	}
	if r.Failed || r.UserMessage != "tell me about malaria" || !strings.Contains(r.BotResponse, "malaria") {
		t.Fatalf("got %+v", r)
	}
}

func TestHandleInboundMessageTranscriptFailureIgnored(t *testing.T) {
	s := newTestChatbot(t, ChatbotDeps{Transcripts: &memoryTranscripts{err: errStub}})
	p := s.HandleInboundMessage(context.Background(), models.ChannelWeb, "u", "I have fever", "")
	s.Wait()
	if !p.Success {
		t.Fatalf("a transcript failure failed the turn: %+v", p)
	}
}

func TestHandleInboundMessageConcurrent(t *testing.T) {
	s := newTestChatbot(t, ChatbotDeps{})
	ctx := context.Background()

	// two turns per identifier stay under the history cap, so a lost update shows up
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", i%4)
			if p := s.HandleInboundMessage(ctx, models.ChannelWeb, id, "I have fever", ""); !p.Success {
				t.Errorf("turn %d failed: %+v", i, p)
			}
		}(i)
	}
	wg.Wait()

	if s.ActiveSessions() != 4 {
		t.Fatalf("ActiveSessions() = %d, want 4", s.ActiveSessions())
	}
	for i := 0; i < 4; i++ {
		history := s.Session(models.ChannelWeb, fmt.Sprintf("user-%d", i)).History
		if len(history) != 4 {
			t.Fatalf("user-%d has %d history entries, want 4", i, len(history))
		}
		for j := 0; j < len(history); j += 2 {
			if history[j].Role != models.RoleUser || history[j+1].Role != models.RoleAssistant {
				t.Fatalf("user-%d history interleaved: %+v", i, history)
			}
		}
	}
}

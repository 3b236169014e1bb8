package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"gramcare-backend/models"
	"gramcare-backend/services"
)

type fakeTranscripts struct {
	sessionID string
	records   []models.TranscriptRecord
	err       error
}

func (f *fakeTranscripts) Recent(_ context.Context, sessionID string, _ int64) ([]models.TranscriptRecord, error) {
	f.sessionID = sessionID
	return f.records, f.err
}

type fakeSMS struct {
	mu       sync.Mutex
	enabled  bool
	to       []string
	payloads []*models.ChannelPayload
	texts    []string
}

func (f *fakeSMS) Enabled() bool { return f.enabled }

func (f *fakeSMS) SendPayload(_ context.Context, to string, p *models.ChannelPayload) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	f.payloads = append(f.payloads, p)
	return len(p.Segments), nil
}

func (f *fakeSMS) SendTextMessage(_ context.Context, _ string, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, body)
	return nil
}

type fakeWhatsApp struct {
	mu       sync.Mutex
	texts    map[string][]string
	payloads map[string]*models.ChannelPayload
	read     []string
	err      error
}

func newFakeWhatsApp() *fakeWhatsApp {
	return &fakeWhatsApp{texts: map[string][]string{}, payloads: map[string]*models.ChannelPayload{}}
}

func (f *fakeWhatsApp) VerifyToken() string { return "verify-me" }

func (f *fakeWhatsApp) SendTextMessage(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts[to] = append(f.texts[to], body)
	return f.err
}

func (f *fakeWhatsApp) SendPayload(_ context.Context, to string, p *models.ChannelPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[to] = p
	return f.err
}

func (f *fakeWhatsApp) MarkMessageAsRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = append(f.read, id)
	return nil
}

func (f *fakeWhatsApp) GetStatus(active int) models.WhatsAppServiceStatus {
	return models.WhatsAppServiceStatus{Enabled: true, ActiveSessions: active}
}

func newChatbot() *services.ChatbotService {
	return services.NewChatbotService(services.ChatbotDeps{
		Alerts: services.NewKnowledgeBase(nil, []models.AlertEntry{
			{Location: "Delhi", Message: map[string]string{"en": "Dengue cases are rising."}},
		}),
	})
}

func serve(r *gin.Engine, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func newChatRouter(transcripts TranscriptReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cc := NewChatbotController(newChatbot(), transcripts)
	r.POST("/api/chat/message", cc.HandleChat)
	r.GET("/api/chat/languages", cc.GetLanguages)
	r.GET("/api/chat/categories", cc.GetCategories)
	r.GET("/api/chat/transcripts/:sessionId", cc.GetTranscripts)
	return r
}

func TestHandleChat(t *testing.T) {
	r := newChatRouter(nil)

	w := serve(r, http.MethodPost, "/api/chat/message", "application/json", `{"message":"I have fever and cough","sessionId":"abc"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var p models.ChannelPayload
	decode(t, w, &p)
	if !p.Success || p.SessionID != "abc" || p.Category != models.CategorySymptoms || !strings.Contains(p.Response, "fever, cough") {
		t.Fatalf("got %+v", p)
	}
	if len(p.Segments) != 0 {
		t.Fatalf("web reply was segmented")
	}

	w = serve(r, http.MethodPost, "/api/chat/message", "application/json", `{"message":"hello"}`)
	decode(t, w, &p)
	if p.SessionID == "" {
		t.Fatalf("no session id generated")
	}
}

func TestHandleChatInvalid(t *testing.T) {
	r := newChatRouter(nil)
	for _, body := range []string{`{`, `[]`} {
		if w := serve(r, http.MethodPost, "/api/chat/message", "application/json", body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestHandleChatEmptyMessage(t *testing.T) {
	r := newChatRouter(nil)

	w := serve(r, http.MethodPost, "/api/chat/message", "application/json", `{"language":"hi","sessionId":"new"}`)
	var p models.ChannelPayload
	decode(t, w, &p)
	if w.Code != http.StatusOK || p.Response != services.WelcomeText("hi") || p.Language != "hi" {
		t.Fatalf("status %d payload %+v, want the Hindi welcome", w.Code, p)
	}
}

func TestGetLanguagesAndCategories(t *testing.T) {
	r := newChatRouter(nil)

	var langs struct {
		Languages []models.Language `json:"languages"`
	}
	decode(t, serve(r, http.MethodGet, "/api/chat/languages", "", ""), &langs)
	if len(langs.Languages) != 5 {
		t.Fatalf("got %d languages, want 5", len(langs.Languages))
	}

	var cats struct {
		Categories []struct {
			Category string   `json:"category"`
			Keywords []string `json:"keywords"`
		} `json:"categories"`
	}
	decode(t, serve(r, http.MethodGet, "/api/chat/categories", "", ""), &cats)
	if len(cats.Categories) != 5 || cats.Categories[0].Category != "emergency" || len(cats.Categories[0].Keywords) == 0 {
		t.Fatalf("got %+v", cats.Categories)
	}
}

func TestGetTranscripts(t *testing.T) {
	if w := serve(newChatRouter(nil), http.MethodGet, "/api/chat/transcripts/abc", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d without a store, want 503", w.Code)
	}

	store := &fakeTranscripts{records: []models.TranscriptRecord{{TurnID: "t1"}, {TurnID: "t2"}}}
	w := serve(newChatRouter(store), http.MethodGet, "/api/chat/transcripts/abc", "", "")
	var resp struct {
		Count int `json:"count"`
	}
	decode(t, w, &resp)
	if w.Code != http.StatusOK || resp.Count != 2 || store.sessionID != "web:abc" {
		t.Fatalf("status %d count %d session %q", w.Code, resp.Count, store.sessionID)
	}

	store.err = errors.New("mongo down")
	if w := serve(newChatRouter(store), http.MethodGet, "/api/chat/transcripts/abc", "", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d on store error, want 500", w.Code)
	}
}

func newSMSRouter(sms *fakeSMS) *gin.Engine {
	gin.SetMode(gin.TestMode)
	verification := services.NewVerificationService(sms, services.VerificationConfig{
		BcryptCost:         bcrypt.MinCost,
		JWTSecret:          "secret",
		DefaultCountryCode: "91",
	})
	sc := NewSMSController(newChatbot(), sms, verification, "91")

	r := gin.New()
	r.POST("/api/sms/webhook", sc.HandleWebhook)
	r.POST("/api/sms/message", sc.HandleMessage)
	r.POST("/api/sms/send", sc.SendSMS)
	r.POST("/api/sms/send-verification", sc.SendVerification)
	r.POST("/api/sms/verify-code", sc.VerifyCode)
	return r
}

func TestSMSWebhook(t *testing.T) {
	r := newSMSRouter(&fakeSMS{})

	form := url.Values{"From": {"+919876543210"}, "Body": {"emergency"}}
	w := serve(r, http.MethodPost, "/api/sms/webhook", "application/x-www-form-urlencoded", form.Encode())
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/xml") {
		t.Fatalf("status %d content type %q", w.Code, w.Header().Get("Content-Type"))
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Response>") || strings.Count(body, "</Message>") < 2 || !strings.Contains(body, "108") {
		t.Fatalf("got %s", body)
	}

	w = serve(r, http.MethodPost, "/api/sms/webhook", "application/x-www-form-urlencoded", url.Values{"Body": {"hi"}}.Encode())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d without From, want 400", w.Code)
	}
}

func TestSMSMessage(t *testing.T) {
	r := newSMSRouter(&fakeSMS{})

	w := serve(r, http.MethodPost, "/api/sms/message", "application/json", `{"smsNumber":"98765 43210","message":"alerts delhi"}`)
	var p models.ChannelPayload
	decode(t, w, &p)
	if w.Code != http.StatusOK || p.Channel != models.ChannelSMS || !strings.Contains(p.Response, "Dengue") || len(p.Segments) == 0 {
		t.Fatalf("status %d payload %+v", w.Code, p)
	}

	w = serve(r, http.MethodPost, "/api/sms/message", "application/json", `{"smsNumber":"12","message":"hi"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d for a bad number, want 400", w.Code)
	}
}

func TestSendSMS(t *testing.T) {
	disabled := &fakeSMS{}
	if w := serve(newSMSRouter(disabled), http.MethodPost, "/api/sms/send", "application/json", `{"to":"9876543210","message":"hello"}`); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d with SMS disabled, want 503", w.Code)
	}

	sms := &fakeSMS{enabled: true}
	w := serve(newSMSRouter(sms), http.MethodPost, "/api/sms/send", "application/json", `{"to":"9876543210","message":"hello there"}`)
	if w.Code != http.StatusOK || len(sms.to) != 1 || sms.to[0] != "919876543210" || sms.payloads[0].Segments[0] != "hello there" {
		t.Fatalf("status %d sent to %v", w.Code, sms.to)
	}
}

func TestVerificationFlow(t *testing.T) {
	sms := &fakeSMS{enabled: true}
	r := newSMSRouter(sms)

	w := serve(r, http.MethodPost, "/api/sms/send-verification", "application/json", `{"phoneNumber":"9876543210"}`)
	var sent struct {
		ExpiresIn int `json:"expiresIn"`
	}
	decode(t, w, &sent)
	if w.Code != http.StatusOK || sent.ExpiresIn != 300 || len(sms.texts) != 1 {
		t.Fatalf("status %d expiresIn %d texts %v", w.Code, sent.ExpiresIn, sms.texts)
	}
	code := regexp.MustCompile(`\d{4}`).FindString(sms.texts[0])

	w = serve(r, http.MethodPost, "/api/sms/verify-code", "application/json", `{"phoneNumber":"9876543210","code":"abcd"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d for a wrong code, want 400", w.Code)
	}

	w = serve(r, http.MethodPost, "/api/sms/verify-code", "application/json", `{"phoneNumber":"9876543210","code":"`+code+`"}`)
	var verified struct {
		Verified bool   `json:"verified"`
		Token    string `json:"token"`
	}
	decode(t, w, &verified)
	if w.Code != http.StatusOK || !verified.Verified || verified.Token == "" {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	if w := serve(r, http.MethodPost, "/api/sms/send-verification", "application/json", `{"phoneNumber":"12"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d for a bad number, want 400", w.Code)
	}
}

func newWhatsAppRouter(wa *fakeWhatsApp) (*gin.Engine, *WhatsAppController) {
	gin.SetMode(gin.TestMode)
	wc := NewWhatsAppController(wa, newChatbot(), "91")
	r := gin.New()
	r.GET("/webhook", wc.VerifyWebhook)
	r.POST("/webhook", wc.HandleWebhook)
	r.POST("/twilio", wc.HandleTwilio)
	r.POST("/admin/send", wc.SendMessage)
	r.GET("/admin/status", wc.GetStatus)
	return r, wc
}

func TestWhatsAppVerifyWebhook(t *testing.T) {
	r, _ := newWhatsAppRouter(newFakeWhatsApp())

	w := serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=42", "", "")
	if w.Code != http.StatusOK || w.Body.String() != "42" {
		t.Fatalf("status %d body %q", w.Code, w.Body.String())
	}
	w = serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=42", "", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d for a wrong token, want 403", w.Code)
	}
}

func TestWhatsAppHandleWebhook(t *testing.T) {
	wa := newFakeWhatsApp()
	r, wc := newWhatsAppRouter(wa)

	body := `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{
		"messages":[
			{"from":"919876543210","id":"wamid.A","type":"text","text":{"body":"I have fever"}},
			{"from":"919811111111","id":"wamid.B","type":"image"}
		],
		"statuses":[{"id":"wamid.X","status":"failed","recipient_id":"919800000000","errors":[{"code":131026,"title":"Undeliverable"}]}]
	}}]}]}`

	w := serve(r, http.MethodPost, "/webhook", "application/json", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	wc.Wait()

	p := wa.payloads["919876543210"]
	if p == nil || p.Channel != models.ChannelWhatsApp || p.Category != models.CategorySymptoms || len(p.Segments) == 0 {
		t.Fatalf("reply payload %+v", p)
	}
	if texts := wa.texts["919811111111"]; len(texts) != 1 || texts[0] != unsupportedMessageReply {
		t.Fatalf("unsupported message reply %v", texts)
	}
	if len(wa.read) != 2 {
		t.Fatalf("marked %v as read", wa.read)
	}

	if w := serve(r, http.MethodPost, "/webhook", "application/json", `{`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d for bad JSON, want 400", w.Code)
	}
}

func TestWhatsAppHandleTwilio(t *testing.T) {
	r, _ := newWhatsAppRouter(newFakeWhatsApp())

	form := url.Values{"From": {"whatsapp:+919876543210"}, "Body": {"hi"}}
	w := serve(r, http.MethodPost, "/twilio", "application/x-www-form-urlencoded", form.Encode())
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Response>") {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestWhatsAppWebhookTwilioForm(t *testing.T) {
	wa := newFakeWhatsApp()
	r, _ := newWhatsAppRouter(wa)

	form := url.Values{"Body": {"Hi"}, "From": {"whatsapp:+19876543210"}}
	w := serve(r, http.MethodPost, "/webhook", "application/x-www-form-urlencoded", form.Encode())
	body := w.Body.String()
	if w.Code != http.StatusOK || !strings.Contains(body, "<Response>") || !strings.Contains(body, "</Message>") {
		t.Fatalf("status %d body %s", w.Code, body)
	}
	if len(wa.payloads) != 0 {
		t.Fatalf("a form post was also sent through the Cloud API: %v", wa.payloads)
	}
}

func TestWhatsAppAdmin(t *testing.T) {
	wa := newFakeWhatsApp()
	r, _ := newWhatsAppRouter(wa)

	w := serve(r, http.MethodPost, "/admin/send", "application/json", `{"to":"9876543210","message":"Clinic closed tomorrow"}`)
	if w.Code != http.StatusOK || len(wa.texts["919876543210"]) != 1 {
		t.Fatalf("status %d texts %v", w.Code, wa.texts)
	}

	wa.err = errors.New("graph api down")
	if w := serve(r, http.MethodPost, "/admin/send", "application/json", `{"to":"9876543210","message":"x"}`); w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d on send failure, want 502", w.Code)
	}

	var status models.WhatsAppServiceStatus
	decode(t, serve(r, http.MethodGet, "/admin/status", "", ""), &status)
	if !status.Enabled {
		t.Fatalf("status %+v", status)
	}
}

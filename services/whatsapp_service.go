package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"gramcare-backend/config"
	"gramcare-backend/models"
	"gramcare-backend/utils"
)

// WhatsAppService sends messages through the WhatsApp Cloud API.
type WhatsAppService struct {
	apiURL             string
	apiVersion         string
	accessToken        string
	phoneNumberID      string
	verifyToken        string
	defaultCountryCode string
	httpClient         *http.Client

	// Status tracking
	statusMu        sync.RWMutex
	lastMessageTime time.Time
	dailyCount      map[string]int
}

func NewWhatsAppService(cfg config.WhatsAppConfig, defaultCountryCode string) *WhatsAppService {
	return &WhatsAppService{
		apiURL:             cfg.APIURL,
		apiVersion:         cfg.APIVersion,
		accessToken:        cfg.AccessToken,
		phoneNumberID:      cfg.PhoneNumberID,
		verifyToken:        cfg.VerifyToken,
		defaultCountryCode: defaultCountryCode,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		dailyCount: make(map[string]int),
	}
}

// VerifyToken returns the webhook verification token
func (ws *WhatsAppService) VerifyToken() string {
	return ws.verifyToken
}

func (ws *WhatsAppService) Enabled() bool {
	return ws.accessToken != "" && ws.phoneNumberID != ""
}

// SendTextMessage sends a simple text message
func (ws *WhatsAppService) SendTextMessage(ctx context.Context, to, body string) error {
	if !ws.Enabled() {
		return external("whatsapp", ErrNotConfigured)
	}

	payload := models.WhatsAppSendMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               utils.CleanPhoneNumber(to, ws.defaultCountryCode),
		Type:             "text",
		Text:             &models.WhatsAppText{Body: body},
	}
	return ws.sendRequest(ctx, payload)
}

// SendPayload delivers each segment of a reply as its own message, in order.
func (ws *WhatsAppService) SendPayload(ctx context.Context, to string, payload *models.ChannelPayload) error {
	segments := payload.Segments
	if len(segments) == 0 {
		segments = []string{payload.Response}
	}
	for i, segment := range segments {
		if err := ws.SendTextMessage(ctx, to, segment); err != nil {
			return fmt.Errorf("segment %d of %d: %w", i+1, len(segments), err)
		}
	}
	return nil
}

// MarkMessageAsRead marks a message as read
func (ws *WhatsAppService) MarkMessageAsRead(ctx context.Context, messageID string) error {
	if !ws.Enabled() {
		return external("whatsapp", ErrNotConfigured)
	}
	return ws.sendRequest(ctx, map[string]interface{}{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	})
}

func (ws *WhatsAppService) sendRequest(ctx context.Context, payload interface{}) error {
	url := fmt.Sprintf("%s/%s/%s/messages", ws.apiURL, ws.apiVersion, ws.phoneNumberID)

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+ws.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return external("whatsapp", fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return external("whatsapp", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errorResp struct {
			Error models.Error `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			log.Printf("[WhatsAppService.sendRequest] API error %d: %s", errorResp.Error.Code, errorResp.Error.Message)
			return external("whatsapp", fmt.Errorf("API error %d: %s", errorResp.Error.Code, errorResp.Error.Message))
		}
		return external("whatsapp", fmt.Errorf("API error: status %d: %s", resp.StatusCode, string(body)))
	}

	ws.updateMessageStatus()
	return nil
}

// updateMessageStatus updates internal message tracking
func (ws *WhatsAppService) updateMessageStatus() {
	ws.statusMu.Lock()
	defer ws.statusMu.Unlock()

	ws.lastMessageTime = time.Now()
	today := ws.lastMessageTime.Format("2006-01-02")
	for day := range ws.dailyCount {
		if day != today {
			delete(ws.dailyCount, day)
		}
	}
	ws.dailyCount[today]++
}

// GetStatus returns the service status
func (ws *WhatsAppService) GetStatus(activeSessions int) models.WhatsAppServiceStatus {
	ws.statusMu.RLock()
	defer ws.statusMu.RUnlock()

	return models.WhatsAppServiceStatus{
		Enabled:           ws.Enabled(),
		LastMessageSent:   ws.lastMessageTime,
		MessageCountToday: ws.dailyCount[time.Now().Format("2006-01-02")],
		ActiveSessions:    activeSessions,
	}
}

package controllers

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"gramcare-backend/middleware"
	"gramcare-backend/models"
	"gramcare-backend/services"
	"gramcare-backend/utils"
)

const unsupportedMessageReply = "Sorry, I can only read text messages at the moment."

// WhatsAppSender is the outbound side of the WhatsApp Cloud API.
type WhatsAppSender interface {
	VerifyToken() string
	SendTextMessage(ctx context.Context, to, body string) error
	SendPayload(ctx context.Context, to string, payload *models.ChannelPayload) error
	MarkMessageAsRead(ctx context.Context, messageID string) error
	GetStatus(activeSessions int) models.WhatsAppServiceStatus
}

type WhatsAppController struct {
	whatsappService    WhatsAppSender
	chatbotService     *services.ChatbotService
	defaultCountryCode string

	pending sync.WaitGroup
}

func NewWhatsAppController(whatsappService WhatsAppSender, chatbotService *services.ChatbotService, defaultCountryCode string) *WhatsAppController {
	return &WhatsAppController{
		whatsappService:    whatsappService,
		chatbotService:     chatbotService,
		defaultCountryCode: defaultCountryCode,
	}
}

// VerifyWebhook handles the webhook verification request from WhatsApp
func (wc *WhatsAppController) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	verifyToken := wc.whatsappService.VerifyToken()
	if mode == "subscribe" && verifyToken != "" && token == verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}

	c.JSON(http.StatusForbidden, gin.H{"error": "Verification failed"})
}

// HandleWebhook processes incoming WhatsApp messages. Meta posts JSON; form posts
// come from the Twilio WhatsApp sandbox and are answered with TwiML.
func (wc *WhatsAppController) HandleWebhook(c *gin.Context) {
	if middleware.IsFormPost(c) {
		wc.HandleTwilio(c)
		return
	}

	var webhookData models.WhatsAppWebhookData

	if err := c.ShouldBindJSON(&webhookData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook data"})
		return
	}

	// Meta expects a fast 200; replies are sent after the request has finished.
	ctx := context.WithoutCancel(c.Request.Context())
	wc.pending.Add(1)
	go func() {
		defer wc.pending.Done()
		wc.processWebhookData(ctx, webhookData)
	}()

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (wc *WhatsAppController) processWebhookData(ctx context.Context, webhookData models.WhatsAppWebhookData) {
	for _, entry := range webhookData.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, message := range change.Value.Messages {
				wc.handleIncomingMessage(ctx, message)
			}
			for _, status := range change.Value.Statuses {
				wc.handleStatusUpdate(status)
			}
		}
	}
}

func (wc *WhatsAppController) handleIncomingMessage(ctx context.Context, message models.WhatsAppMessage) {
	if err := wc.whatsappService.MarkMessageAsRead(ctx, message.ID); err != nil {
		log.Printf("[WhatsAppController.handleIncomingMessage] mark read %s: %v", message.ID, err)
	}

	text, ok := message.Body()
	if !ok {
		if err := wc.whatsappService.SendTextMessage(ctx, message.From, unsupportedMessageReply); err != nil {
			log.Printf("[WhatsAppController.handleIncomingMessage] send to %s: %v", message.From, err)
		}
		return
	}

	sender := utils.CleanPhoneNumber(message.From, wc.defaultCountryCode)
	payload := wc.chatbotService.HandleInboundMessage(ctx, models.ChannelWhatsApp, sender, text, services.LanguageAuto)

	// Delivery failures are logged only; the turn is already recorded.
	if err := wc.whatsappService.SendPayload(ctx, message.From, payload); err != nil {
		log.Printf("[WhatsAppController.handleIncomingMessage] reply to %s: %v", message.From, err)
	}
}

// handleStatusUpdate processes message status updates
func (wc *WhatsAppController) handleStatusUpdate(status models.WhatsAppStatus) {
	for _, err := range status.Errors {
		log.Printf("[WhatsAppController.handleStatusUpdate] message %s to %s: %d %s: %s",
			status.ID, status.RecipientID, err.Code, err.Title, err.Message)
	}
}

// HandleTwilio answers WhatsApp messages relayed through Twilio with TwiML.
func (wc *WhatsAppController) HandleTwilio(c *gin.Context) {
	var inbound models.TwilioInbound
	if err := c.ShouldBind(&inbound); err != nil || inbound.Sender() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "From is required"})
		return
	}

	sender := utils.CleanPhoneNumber(inbound.Sender(), wc.defaultCountryCode)
	payload := wc.chatbotService.HandleInboundMessage(c.Request.Context(), models.ChannelWhatsApp, sender, inbound.Body, services.LanguageAuto)
	writeTwiML(c, payload)
}

// SendMessage sends a message to a specific WhatsApp number (for notifications)
func (wc *WhatsAppController) SendMessage(c *gin.Context) {
	var req struct {
		To      string `json:"to" binding:"required"`
		Message string `json:"message" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	to := utils.CleanPhoneNumber(req.To, wc.defaultCountryCode)
	if !utils.IsValidPhone(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
		return
	}

	if err := wc.whatsappService.SendTextMessage(c.Request.Context(), to, req.Message); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to send message",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "sent",
		"to":     to,
	})
}

// GetStatus returns WhatsApp service status
func (wc *WhatsAppController) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, wc.whatsappService.GetStatus(wc.chatbotService.ActiveSessions()))
}

// Wait blocks until webhook messages accepted so far have been handled.
func (wc *WhatsAppController) Wait() {
	wc.pending.Wait()
}

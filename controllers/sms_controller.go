package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"gramcare-backend/models"
	"gramcare-backend/services"
	"gramcare-backend/utils"
)

// SMSSender is the outbound SMS transport.
type SMSSender interface {
	Enabled() bool
	SendPayload(ctx context.Context, to string, payload *models.ChannelPayload) (int, error)
}

type SMSController struct {
	chatbotService      *services.ChatbotService
	smsService          SMSSender
	verificationService *services.VerificationService
	formatter           *services.ChannelFormatter
	defaultCountryCode  string
}

func NewSMSController(chatbotService *services.ChatbotService, smsService SMSSender, verificationService *services.VerificationService, defaultCountryCode string) *SMSController {
	return &SMSController{
		chatbotService:      chatbotService,
		smsService:          smsService,
		verificationService: verificationService,
		formatter:           services.NewChannelFormatter(),
		defaultCountryCode:  defaultCountryCode,
	}
}

// HandleWebhook answers an inbound Twilio SMS with TwiML, one <Message> per segment.
func (sc *SMSController) HandleWebhook(c *gin.Context) {
	var inbound models.TwilioInbound
	if err := c.ShouldBind(&inbound); err != nil || inbound.Sender() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "From is required"})
		return
	}

	sender := utils.CleanPhoneNumber(inbound.Sender(), sc.defaultCountryCode)
	payload := sc.chatbotService.HandleInboundMessage(c.Request.Context(), models.ChannelSMS, sender, inbound.Body, services.LanguageAuto)
	writeTwiML(c, payload)
}

// HandleMessage runs an SMS conversation turn from the web client and returns the segments as JSON.
func (sc *SMSController) HandleMessage(c *gin.Context) {
	var req models.SMSChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "smsNumber and message are required"})
		return
	}

	number := utils.CleanPhoneNumber(req.SMSNumber, sc.defaultCountryCode)
	if !utils.IsValidPhone(number) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid phone number"})
		return
	}

	language := req.Language
	if language == "" {
		language = services.LanguageAuto
	}
	payload := sc.chatbotService.HandleInboundMessage(c.Request.Context(), models.ChannelSMS, number, req.Message, language)

	status := http.StatusOK
	if !payload.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, payload)
}

// SendSMS sends an arbitrary text, split into segments, to a phone number.
func (sc *SMSController) SendSMS(c *gin.Context) {
	var req struct {
		To      string `json:"to" binding:"required"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "to and message are required"})
		return
	}
	if !sc.smsService.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "SMS service is not configured"})
		return
	}

	to := utils.CleanPhoneNumber(req.To, sc.defaultCountryCode)
	if !utils.IsValidPhone(to) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid phone number"})
		return
	}

	payload := sc.formatter.Format(req.Message, models.ChannelSMS, services.FormatMeta{})
	sent, err := sc.smsService.SendPayload(c.Request.Context(), to, payload)
	if err != nil {
		log.Printf("[SMSController.SendSMS] %s: %v", to, err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Failed to send SMS", "sent": sent})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "segments": sent})
}

type verificationRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Code        string `json:"code"`
}

// SendVerification texts a one-time code to the given number.
func (sc *SMSController) SendVerification(c *gin.Context) {
	var req verificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "phoneNumber is required"})
		return
	}

	expiresIn, err := sc.verificationService.SendCode(c.Request.Context(), req.PhoneNumber)
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid phone number"})
		return
	case errors.Is(err, services.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "SMS service is not configured"})
		return
	case err != nil:
		log.Printf("[SMSController.SendVerification] %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Failed to send verification code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Verification code sent",
		"expiresIn": int(expiresIn.Seconds()),
	})
}

// VerifyCode checks a code and returns a token for the verified number.
func (sc *SMSController) VerifyCode(c *gin.Context) {
	var req verificationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "phoneNumber and code are required"})
		return
	}

	token, err := sc.verificationService.Verify(req.PhoneNumber, req.Code)
	switch {
	case errors.Is(err, services.ErrCodeNotFound), errors.Is(err, services.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Verification code expired or not found"})
		return
	case errors.Is(err, services.ErrCodeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid verification code"})
		return
	case err != nil:
		log.Printf("[SMSController.VerifyCode] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to verify code"})
		return
	}

	resp := gin.H{"success": true, "verified": true}
	if token != "" {
		resp["token"] = token
	}
	c.JSON(http.StatusOK, resp)
}

// writeTwiML renders a payload as a TwiML messaging response.
func writeTwiML(c *gin.Context, payload *models.ChannelPayload) {
	segments := payload.Segments
	if len(segments) == 0 {
		segments = []string{payload.Response}
	}

	xml, err := services.TwiMLReply(segments)
	if err != nil {
		log.Printf("[writeTwiML] %v", err)
		c.String(http.StatusInternalServerError, "")
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(xml))
}

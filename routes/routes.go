package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gramcare-backend/config"
	"gramcare-backend/controllers"
	"gramcare-backend/middleware"
	"gramcare-backend/services"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Config       *config.Config
	Chatbot      *services.ChatbotService
	WhatsApp     controllers.WhatsAppSender
	SMS          controllers.SMSSender
	Verification *services.VerificationService
	Transcripts  controllers.TranscriptReader
	HealthCheck  func(ctx context.Context) error
}

// Controllers are returned so the caller can drain background work on shutdown.
type Controllers struct {
	Chatbot   *controllers.ChatbotController
	WebSocket *controllers.WebSocketController
	WhatsApp  *controllers.WhatsAppController
	SMS       *controllers.SMSController
}

func SetupRoutes(router *gin.Engine, deps Dependencies) *Controllers {
	cfg := deps.Config

	ctrl := &Controllers{
		Chatbot:   controllers.NewChatbotController(deps.Chatbot, deps.Transcripts),
		WebSocket: controllers.NewWebSocketController(deps.Chatbot, cfg.Security.AllowedOrigins),
		WhatsApp:  controllers.NewWhatsAppController(deps.WhatsApp, deps.Chatbot, cfg.DefaultCountryCode),
		SMS:       controllers.NewSMSController(deps.Chatbot, deps.SMS, deps.Verification, cfg.DefaultCountryCode),
	}

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":              "ok",
			"timestamp":           time.Now(),
			"active_sessions":     deps.Chatbot.ActiveSessions(),
			"whatsapp_configured": cfg.WhatsApp.Configured(),
			"sms_configured":      cfg.SMS.TwilioConfigured(),
			"ai_enabled":          cfg.AI.Enabled,
		}
		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(c.Request.Context()); err != nil {
				status["status"] = "degraded"
				status["database"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, status)
				return
			}
		}
		c.JSON(http.StatusOK, status)
	})

	chat := router.Group("/api/chat")
	{
		chat.POST("/message", ctrl.Chatbot.HandleChat)
		chat.GET("/languages", ctrl.Chatbot.GetLanguages)
		chat.GET("/categories", ctrl.Chatbot.GetCategories)
		chat.GET("/transcripts/:sessionId", ctrl.Chatbot.GetTranscripts)

		// WebSocket for real-time chat
		chat.GET("/ws", ctrl.WebSocket.HandleWebSocket)
	}

	twilioWebhook := func(c *gin.Context) { c.Next() }
	if cfg.SMS.ValidateSignature {
		twilioWebhook = middleware.VerifyTwilioSignature(cfg.SMS.AuthToken, cfg.PublicURL)
	}

	// Outbound sends need a phone verification token.
	var tokens middleware.TokenValidator
	if cfg.JWT.Secret != "" && deps.Verification != nil {
		tokens = deps.Verification
	}
	requireVerifiedPhone := middleware.RequireVerifiedPhone(tokens)

	sms := router.Group("/api/sms")
	{
		sms.POST("/webhook", twilioWebhook, ctrl.SMS.HandleWebhook)
		sms.POST("/message", ctrl.SMS.HandleMessage)
		sms.POST("/send", requireVerifiedPhone, ctrl.SMS.SendSMS)
		sms.POST("/send-verification", ctrl.SMS.SendVerification)
		sms.POST("/verify-code", ctrl.SMS.VerifyCode)
	}

	whatsapp := router.Group("/api/whatsapp")
	{
		// Webhook endpoints (no auth required for WhatsApp to call)
		whatsapp.GET("/webhook", ctrl.WhatsApp.VerifyWebhook)
		// Meta posts JSON here; the Twilio WhatsApp sandbox posts forms to the same path.
		whatsapp.POST("/webhook",
			middleware.ByContentType(twilioWebhook, middleware.VerifyWhatsAppSignature(cfg.WhatsApp.AppSecret)),
			ctrl.WhatsApp.HandleWebhook)
		whatsapp.POST("/twilio", twilioWebhook, ctrl.WhatsApp.HandleTwilio)

		admin := whatsapp.Group("/admin", requireVerifiedPhone)
		admin.POST("/send", ctrl.WhatsApp.SendMessage)
		admin.GET("/status", ctrl.WhatsApp.GetStatus)
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"path":  c.Request.URL.Path,
		})
	})

	return ctrl
}

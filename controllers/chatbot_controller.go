package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"gramcare-backend/models"
	"gramcare-backend/services"
)

// TranscriptReader lists stored turns of a session.
type TranscriptReader interface {
	Recent(ctx context.Context, sessionID string, limit int64) ([]models.TranscriptRecord, error)
}

type ChatbotController struct {
	chatbotService *services.ChatbotService
	transcripts    TranscriptReader
}

// NewChatbotController builds the web chat handlers. transcripts may be nil.
func NewChatbotController(chatbotService *services.ChatbotService, transcripts TranscriptReader) *ChatbotController {
	return &ChatbotController{
		chatbotService: chatbotService,
		transcripts:    transcripts,
	}
}

// HandleChat processes chat messages
func (cc *ChatbotController) HandleChat(c *gin.Context) {
	var req models.ChatRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	sessionID := webSessionID(req.SessionID, req.UserID)
	payload := cc.chatbotService.HandleInboundMessage(c.Request.Context(), models.ChannelWeb, sessionID, req.Message, req.Language)
	payload.SessionID = sessionID

	status := http.StatusOK
	if !payload.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, payload)
}

// GetLanguages lists the supported languages
func (cc *ChatbotController) GetLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"languages": services.SupportedLanguages,
	})
}

var categoryDescriptions = []struct {
	category    models.Category
	description string
	examples    []string
}{
	{models.CategoryEmergency, "Urgent situations that need a hospital or 108", []string{"Emergency, my father collapsed", "Need an ambulance"}},
	{models.CategorySymptoms, "Symptoms such as fever, cough or pain", []string{"I have fever and cough", "Headache since morning"}},
	{models.CategoryDiseaseInfo, "Information about specific diseases", []string{"Tell me about dengue", "Is malaria contagious?"}},
	{models.CategoryPrevention, "Vaccination, hygiene and prevention", []string{"Where can I get a vaccine?", "How to use a mask"}},
	{models.CategoryGeneral, "Anything else, answered from the FAQ when possible", []string{"How do I prepare ORS?", "help"}},
}

// GetCategories returns the health categories the assistant recognises
func (cc *ChatbotController) GetCategories(c *gin.Context) {
	categories := make([]gin.H, 0, len(categoryDescriptions))
	for _, d := range categoryDescriptions {
		keywords := cc.chatbotService.Keywords(d.category)
		if keywords == nil {
			keywords = []string{}
		}
		categories = append(categories, gin.H{
			"category":    d.category,
			"description": d.description,
			"keywords":    keywords,
			"examples":    d.examples,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"categories": categories,
	})
}

// GetTranscripts returns the stored turns of a web session
func (cc *ChatbotController) GetTranscripts(c *gin.Context) {
	if cc.transcripts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Transcripts are not stored"})
		return
	}

	sessionID := services.SessionKey(models.ChannelWeb, c.Param("sessionId"))
	records, err := cc.transcripts.Recent(c.Request.Context(), sessionID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to retrieve transcripts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"transcripts": records,
		"count":       len(records),
	})
}

// webSessionID picks the caller's session id, falling back to the user id or a new ULID.
func webSessionID(sessionID, userID string) string {
	if id := strings.TrimSpace(sessionID); id != "" {
		return id
	}
	if id := strings.TrimSpace(userID); id != "" {
		return id
	}
	return ulid.Make().String()
}

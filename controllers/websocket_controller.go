package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gramcare-backend/models"
	"gramcare-backend/services"
)

type socketMessage struct {
	Message  string `json:"message"`
	Language string `json:"language"`
	UserID   string `json:"user_id"`
}

type WebSocketController struct {
	chatbotService *services.ChatbotService
	upgrader       websocket.Upgrader
}

func NewWebSocketController(chatbotService *services.ChatbotService, allowedOrigins []string) *WebSocketController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &WebSocketController{
		chatbotService: chatbotService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
	conn, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WebSocketController.HandleWebSocket] upgrade error: %v", err)
		return
	}
	defer conn.Close()

	sessionID := webSessionID(c.Query("session_id"), "")
	ctx := c.Request.Context()

	for {
		var msg socketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WebSocketController.HandleWebSocket] read error: %v", err)
			}
			return
		}

		payload := wc.chatbotService.HandleInboundMessage(ctx, models.ChannelWeb, sessionID, msg.Message, msg.Language)
		payload.SessionID = sessionID

		if err := conn.WriteJSON(payload); err != nil {
			log.Printf("[WebSocketController.HandleWebSocket] write error: %v", err)
			return
		}
	}
}

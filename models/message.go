package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageChannel represents the communication channel
type MessageChannel string

const (
	ChannelWeb      MessageChannel = "web"
	ChannelSMS      MessageChannel = "sms"
	ChannelWhatsApp MessageChannel = "whatsapp"
)

// Segmented reports whether replies on this channel are split into SMS-sized chunks.
func (c MessageChannel) Segmented() bool {
	return c == ChannelSMS || c == ChannelWhatsApp
}

// Category is the coarse health topic of a message.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryEmergency   Category = "emergency"
	CategorySymptoms    Category = "symptoms"
	CategoryDiseaseInfo Category = "disease_info"
	CategoryPrevention  Category = "prevention"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// IntentContext is derived per message and never stored.
type IntentContext struct {
	Category        Category `json:"category"`
	Urgency         Urgency  `json:"urgency"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// ChatRequest is the body of POST /api/chat/message.
// An empty Message gets the welcome text.
type ChatRequest struct {
	Message   string `json:"message"`
	Language  string `json:"language,omitempty"`
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// SMSChatRequest is the body of POST /api/sms/message.
type SMSChatRequest struct {
	SMSNumber string `json:"smsNumber" binding:"required"`
	Message   string `json:"message" binding:"required"`
	Language  string `json:"language,omitempty"`
}

// ChannelPayload is what the router hands back to a transport.
type ChannelPayload struct {
	Channel     MessageChannel `json:"channel"`
	Success     bool           `json:"success"`
	Response    string         `json:"response"`
	Language    string         `json:"language"`
	Confidence  float64        `json:"confidence,omitempty"`
	Category    Category       `json:"category,omitempty"`
	Urgency     Urgency        `json:"urgency,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Segments    []string       `json:"segments,omitempty"`
	SessionID   string         `json:"sessionId,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// AIResult is returned by a generative AI collaborator.
type AIResult struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Provider string `json:"provider,omitempty"`
}

// TranscriptRecord is one finished turn as written to the transcripts collection.
type TranscriptRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TurnID      string             `bson:"turn_id" json:"turn_id"`
	SessionID   string             `bson:"session_id" json:"session_id"`
	Channel     MessageChannel     `bson:"channel" json:"channel"`
	UserMessage string             `bson:"user_message" json:"user_message"`
	BotResponse string             `bson:"bot_response" json:"bot_response"`
	Category    Category           `bson:"category,omitempty" json:"category,omitempty"`
	Urgency     Urgency            `bson:"urgency,omitempty" json:"urgency,omitempty"`
	Language    string             `bson:"language" json:"language"`
	Source      string             `bson:"source" json:"source"`
	Failed      bool               `bson:"failed" json:"failed"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}

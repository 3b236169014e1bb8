package models

import "time"

// MaxHistory is the number of history entries kept per session.
const MaxHistory = 10

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type HistoryEntry struct {
	Role    Role   `json:"role"`
	Message string `json:"message"`
}

type UserProfile struct {
	PreferredLanguage string `json:"preferred_language,omitempty"`
	Location          string `json:"location,omitempty"`
	Age               int    `json:"age,omitempty"`
}

// Session is the in-memory conversational state of one channel-scoped identifier.
type Session struct {
	ID           string         `json:"id"`
	Language     string         `json:"language"`
	History      []HistoryEntry `json:"history"`
	Profile      UserProfile    `json:"profile"`
	LastActivity time.Time      `json:"last_activity"`
}

// Clone returns a copy that shares no slices with s.
func (s Session) Clone() Session {
	out := s
	out.History = append([]HistoryEntry(nil), s.History...)
	return out
}

// AppendTurn records a user message and the assistant reply, keeping the newest MaxHistory entries.
func (s *Session) AppendTurn(userMessage, reply string) {
	s.History = append(s.History,
		HistoryEntry{Role: RoleUser, Message: userMessage},
		HistoryEntry{Role: RoleAssistant, Message: reply},
	)
	s.History = TruncateHistory(s.History, MaxHistory)
}

// TruncateHistory drops the oldest entries so that at most limit remain.
func TruncateHistory(history []HistoryEntry, limit int) []HistoryEntry {
	if limit <= 0 {
		return nil
	}
	if len(history) > limit {
		history = append([]HistoryEntry(nil), history[len(history)-limit:]...)
	}
	return history
}

// SessionUpdate carries the fields to merge into a stored session. Nil fields are left alone.
type SessionUpdate struct {
	Language          *string
	PreferredLanguage *string
	Location          *string
	Age               *int
	History           []HistoryEntry
}

// UpdateFrom builds an update that copies every mutable field of s.
func UpdateFrom(s Session) SessionUpdate {
	history := s.History
	if history == nil {
		history = []HistoryEntry{}
	}
	return SessionUpdate{
		Language:          &s.Language,
		PreferredLanguage: &s.Profile.PreferredLanguage,
		Location:          &s.Profile.Location,
		Age:               &s.Profile.Age,
		History:           history,
	}
}

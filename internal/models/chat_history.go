package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatHistory is a chat message persisted in PostgreSQL.
// The embedded gorm.Model provides the row ID and created/updated timestamps;
// SentAt carries the server-assigned message timestamp used for replay order.
type ChatHistory struct {
	gorm.Model

	// MessageID is the router-assigned message UUID.
	MessageID string `gorm:"type:uuid;not null;uniqueIndex"`
	// SessionID is the history key the message was appended under
	// (a chat session id, or a derived admin-conversation key).
	SessionID string `gorm:"type:text;not null;index:idx_session_sent"`
	// SenderID is the connection or user id of the sender; empty for
	// system-generated messages.
	SenderID string `gorm:"type:text"`
	// SenderType is one of USER, LAWYER, ADMIN, SYSTEM.
	SenderType string `gorm:"type:text;not null"`
	// MessageType is one of TEXT, SYSTEM.
	MessageType string `gorm:"type:text;not null"`
	// Content is the message body after trimming.
	Content string `gorm:"type:text;not null"`
	// SentAt orders the log; monotonic per process.
	SentAt time.Time `gorm:"not null;index:idx_session_sent"`
}

// ToMessage converts a persisted row back to the wire form.
func (h *ChatHistory) ToMessage() Message {
	return Message{
		ID:          h.MessageID,
		SessionID:   h.SessionID,
		SenderID:    h.SenderID,
		SenderType:  h.SenderType,
		MessageType: h.MessageType,
		Content:     h.Content,
		Timestamp:   h.SentAt,
	}
}

// HistoryFromMessage builds the row to persist for a routed message.
func HistoryFromMessage(msg *Message) *ChatHistory {
	return &ChatHistory{
		MessageID:   msg.ID,
		SessionID:   msg.SessionID,
		SenderID:    msg.SenderID,
		SenderType:  msg.SenderType,
		MessageType: msg.MessageType,
		Content:     msg.Content,
		SentAt:      msg.Timestamp,
	}
}

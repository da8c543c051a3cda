package models

import "time"

// Sender types carried on every outbound chat message.
const (
	SenderUser   = "USER"
	SenderLawyer = "LAWYER"
	SenderAdmin  = "ADMIN"
	SenderSystem = "SYSTEM"
)

// Message kinds.
const (
	MessageText   = "TEXT"
	MessageSystem = "SYSTEM"
)

// Message is one chat message as it travels over the wire and through the
// history log. Immutable once the router has stamped it.
type Message struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"chatSessionId,omitempty"`
	SenderID    string    `json:"senderId,omitempty"`
	SenderType  string    `json:"senderType"`
	MessageType string    `json:"messageType"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

// UserProfile is the identity a client asserts for itself. The server does not
// validate any of these fields, it only relays them.
type UserProfile struct {
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name,omitempty"`
	AuthID string `json:"authId,omitempty"`
}

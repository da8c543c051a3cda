package models

import "encoding/json"

// Frame is the inbound wire format: a named event plus its raw payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Envelope is the outbound counterpart of Frame.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Inbound event names.
const (
	EventIdentifyUser    = "identify-user"
	EventJoinAdmin       = "join-admin"
	EventUserJoinChat    = "user-join-chat"
	EventLawyerJoinChat  = "lawyer-join-chat"
	EventUserToChat      = "user-to-chat"
	EventLawyerToChat    = "lawyer-to-chat"
	EventUserToAdmin     = "user-to-admin"
	EventAdminResponse   = "admin-response"
	EventUserTyping      = "user-typing"
	EventUserStopTyping  = "user-stop-typing"
	EventAdminTyping     = "admin-typing"
	EventAdminStopTyping = "admin-stop-typing"
	EventGetChatHistory  = "get-chat-history"
	EventGetUserHistory  = "get-user-history"
)

// Outbound event names.
const (
	EventUserConnected     = "user-connected"
	EventUserDisconnected  = "user-disconnected"
	EventAdminConnected    = "admin-connected"
	EventAdminDisconnected = "admin-disconnected"
	EventAdminStats        = "admin-stats"
	EventLawyerJoined      = "lawyer-joined"
	EventChatMessage       = "chat-message"
	EventUserMessage       = "user-message"
	EventAdminMessage      = "admin-message"
	EventAdminSentMessage  = "admin-sent-message"
	EventChatHistory       = "chat-history"
)

// JoinChatPayload covers both user-join-chat and lawyer-join-chat.
type JoinChatPayload struct {
	ChatSessionID string `json:"chatSessionId"`
	UserID        string `json:"userId,omitempty"`
	LawyerID      string `json:"lawyerId,omitempty"`
	LawyerName    string `json:"lawyerName,omitempty"`
}

// ChatSendPayload covers user-to-chat and lawyer-to-chat.
type ChatSendPayload struct {
	ChatSessionID string `json:"chatSessionId"`
	Content       string `json:"content"`
	UserID        string `json:"userId,omitempty"`
	LawyerID      string `json:"lawyerId,omitempty"`
	TargetUserID  string `json:"targetUserId,omitempty"`
}

// AdminSendPayload covers user-to-admin and admin-response.
type AdminSendPayload struct {
	Content        string `json:"content"`
	TargetSocketID string `json:"targetSocketId,omitempty"`
}

// TypingPayload covers all four typing events.
type TypingPayload struct {
	Content        string `json:"content,omitempty"`
	TargetSocketID string `json:"targetSocketId,omitempty"`
}

// HistoryRequestPayload is the get-user-history payload.
type HistoryRequestPayload struct {
	SocketID string `json:"socketId"`
}

// HistoryResponse answers get-chat-history / get-user-history, unicast to the
// requester only.
type HistoryResponse struct {
	History  []Message `json:"history"`
	SocketID string    `json:"socketId,omitempty"`
}

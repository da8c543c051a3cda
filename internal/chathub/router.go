package chathub

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"lawchat/backend/internal/models"

	"github.com/google/uuid"
)

// adminSessionPrefix derives the history/typing key for the direct
// user-to-admin conversation of one participant. Session-id keying is
// canonical everywhere else; this is the one derived key.
const adminSessionPrefix = "admin:"

// UserMessagePayload is the admin-room mirror of a user-to-admin message.
type UserMessagePayload struct {
	ID        string             `json:"id"`
	Content   string             `json:"content"`
	SocketID  string             `json:"socketId"`
	UserInfo  models.UserProfile `json:"userInfo"`
	Timestamp time.Time          `json:"timestamp"`
}

// AdminMessagePayload is an operator response delivered to a user (or
// mirrored to other operators as admin-sent-message).
type AdminMessagePayload struct {
	ID             string             `json:"id"`
	Content        string             `json:"content"`
	TargetSocketID string             `json:"targetSocketId,omitempty"`
	SocketID       string             `json:"socketId"`
	AdminInfo      models.UserProfile `json:"adminInfo"`
	Timestamp      time.Time          `json:"timestamp"`
}

// TypingNotice mirrors a typing indicator to the interested party or room.
type TypingNotice struct {
	SocketID       string              `json:"socketId,omitempty"`
	TargetSocketID string              `json:"targetSocketId,omitempty"`
	Content        string              `json:"content,omitempty"`
	UserInfo       *models.UserProfile `json:"userInfo,omitempty"`
}

// AdminStatsPayload answers join-admin with the current presence picture.
type AdminStatsPayload struct {
	ConnectedUsers  int          `json:"connectedUsers"`
	ConnectedAdmins int          `json:"connectedAdmins"`
	UsersList       []Connection `json:"usersList"`
}

// dispatch validates one inbound event and applies the connection state machine:
// Connected(anonymous) → Identified(role) → Joined(room, per room) →
// Disconnected. Malformed or out-of-order events are logged and dropped;
// nothing a client sends can take the hub down.
func (m *ManagerService) dispatch(evt InboundEvent) {
	if _, ok := m.Clients[evt.ClientID]; !ok {
		return
	}
	conn, ok := m.Registry.Get(evt.ClientID)
	if !ok {
		return
	}

	var err error
	switch evt.Name {
	case models.EventIdentifyUser:
		err = m.handleIdentifyUser(conn, evt.Data)
	case models.EventJoinAdmin:
		err = m.handleJoinAdmin(conn, evt.Data)
	case models.EventUserJoinChat:
		err = m.handleUserJoinChat(conn, evt.Data)
	case models.EventLawyerJoinChat:
		err = m.handleLawyerJoinChat(conn, evt.Data)
	case models.EventUserToChat:
		err = m.handleChatSend(conn, evt.Data, models.SenderUser)
	case models.EventLawyerToChat:
		err = m.handleChatSend(conn, evt.Data, models.SenderLawyer)
	case models.EventUserToAdmin:
		err = m.handleUserToAdmin(conn, evt.Data)
	case models.EventAdminResponse:
		err = m.handleAdminResponse(conn, evt.Data)
	case models.EventUserTyping:
		err = m.handleUserTyping(conn, evt.Data, true)
	case models.EventUserStopTyping:
		err = m.handleUserTyping(conn, evt.Data, false)
	case models.EventAdminTyping:
		err = m.handleAdminTyping(conn, evt.Data, true)
	case models.EventAdminStopTyping:
		err = m.handleAdminTyping(conn, evt.Data, false)
	case models.EventGetChatHistory:
		m.handleGetChatHistory(conn)
	case models.EventGetUserHistory:
		err = m.handleGetUserHistory(conn, evt.Data)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownEvent, evt.Name)
	}

	if err != nil {
		log.Printf("WARNING: Dropped %s from %s: %v", evt.Name, evt.ClientID, err)
	}
}

func (m *ManagerService) handleIdentifyUser(conn *Connection, data json.RawMessage) error {
	var profile models.UserProfile
	if len(data) > 0 {
		if err := json.Unmarshal(data, &profile); err != nil {
			return err
		}
	}
	if err := m.Registry.Identify(conn.ID, RoleUser, profile); err != nil {
		return err
	}
	conn, _ = m.Registry.Get(conn.ID)
	m.announceUserConnected(conn)
	return nil
}

func (m *ManagerService) handleJoinAdmin(conn *Connection, data json.RawMessage) error {
	var profile models.UserProfile
	if len(data) > 0 {
		if err := json.Unmarshal(data, &profile); err != nil {
			return err
		}
	}
	wasOperator := conn.Role.IsOperator()
	if err := m.Registry.Identify(conn.ID, RoleAdmin, profile); err != nil {
		return err
	}
	if err := m.Rooms.Join(AdminRoom, conn.ID); err != nil {
		return err
	}

	stats := AdminStatsPayload{
		ConnectedUsers:  m.Registry.CountByRole(RoleUser),
		ConnectedAdmins: m.Registry.CountOperators(),
		UsersList:       m.Registry.ListByRole(RoleUser),
	}
	m.deliverTo(conn.ID, models.Envelope{Event: models.EventAdminStats, Data: stats})

	if !wasOperator {
		conn, _ = m.Registry.Get(conn.ID)
		m.announceAdminConnected(conn)
	}
	return nil
}

func (m *ManagerService) handleUserJoinChat(conn *Connection, data json.RawMessage) error {
	var p models.JoinChatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.ChatSessionID == "" {
		return fmt.Errorf("%w: missing chatSessionId", ErrInvalidHistoryKey)
	}
	if conn.Role == RoleAnonymous {
		profile := conn.Profile
		profile.UserID = p.UserID
		if err := m.Registry.Identify(conn.ID, RoleUser, profile); err != nil {
			return err
		}
		conn, _ = m.Registry.Get(conn.ID)
		m.announceUserConnected(conn)
	}
	if err := m.Rooms.Join(RoomID(p.ChatSessionID), conn.ID); err != nil {
		return err
	}
	m.recordSessionJoin(p.ChatSessionID, participantID(conn, p.UserID))
	return nil
}

func (m *ManagerService) handleLawyerJoinChat(conn *Connection, data json.RawMessage) error {
	var p models.JoinChatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.ChatSessionID == "" {
		return fmt.Errorf("%w: missing chatSessionId", ErrInvalidHistoryKey)
	}

	wasOperator := conn.Role.IsOperator()
	profile := models.UserProfile{UserID: p.LawyerID, Name: p.LawyerName}
	if err := m.Registry.Identify(conn.ID, RoleLawyer, profile); err != nil {
		return err
	}
	if err := m.Rooms.Join(AdminRoom, conn.ID); err != nil {
		return err
	}
	if !wasOperator {
		refreshed, _ := m.Registry.Get(conn.ID)
		m.announceAdminConnected(refreshed)
	}

	if err := m.Rooms.Join(RoomID(p.ChatSessionID), conn.ID); err != nil {
		return err
	}
	m.recordSessionJoin(p.ChatSessionID, participantID(conn, p.LawyerID))

	name := p.LawyerName
	if name == "" {
		name = "A lawyer"
	}
	msg := models.Message{
		ID:          uuid.NewString(),
		SessionID:   p.ChatSessionID,
		SenderType:  models.SenderSystem,
		MessageType: models.MessageSystem,
		Content:     name + " has joined the chat",
		Timestamp:   m.stamp(),
	}
	if err := m.History.Append(p.ChatSessionID, msg); err != nil {
		return err
	}
	m.broadcastRoom(RoomID(p.ChatSessionID), "", models.Envelope{Event: models.EventLawyerJoined, Data: msg})
	return nil
}

// handleChatSend covers user-to-chat and lawyer-to-chat. With a session id
// the message is appended under it and fanned out to the session room
// (including the sender, who renders from the echo). Without one it falls
// back to a broadcast to everyone but the sender, logged under the sender's
// admin conversation.
func (m *ManagerService) handleChatSend(conn *Connection, data json.RawMessage, senderType string) error {
	var p models.ChatSendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	content := strings.TrimSpace(p.Content)
	if content == "" {
		// Silently rejected: not stored, not broadcast.
		return nil
	}

	msg := models.Message{
		ID:          uuid.NewString(),
		SessionID:   p.ChatSessionID,
		SenderID:    senderIdentity(conn, p),
		SenderType:  senderType,
		MessageType: models.MessageText,
		Content:     content,
		Timestamp:   m.stamp(),
	}
	env := models.Envelope{Event: models.EventChatMessage, Data: msg}

	if p.ChatSessionID != "" {
		if err := m.History.Append(p.ChatSessionID, msg); err != nil {
			return err
		}
		delivered := m.broadcastRoom(RoomID(p.ChatSessionID), "", env)
		if delivered == 0 {
			log.Printf("Chat message to empty session %s from %s (delivered=0)", p.ChatSessionID, conn.ID)
		}
		return nil
	}

	key := m.adminKeyFor(conn)
	// The stored copy carries the derived key so a cold-start seed of the
	// admin conversation finds it again; the wire copy keeps no session id.
	stored := msg
	stored.SessionID = key
	if err := m.History.Append(key, stored); err != nil {
		return err
	}
	if p.TargetUserID != "" {
		// Unknown or disconnected recipient is a delivery miss, not an error.
		m.deliverTo(p.TargetUserID, env)
		return nil
	}
	m.broadcastAll(conn.ID, env)
	return nil
}

func (m *ManagerService) handleUserToAdmin(conn *Connection, data json.RawMessage) error {
	var p models.AdminSendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	content := strings.TrimSpace(p.Content)
	if content == "" {
		return nil
	}

	msg := models.Message{
		ID:          uuid.NewString(),
		SessionID:   m.adminKeyFor(conn),
		SenderID:    conn.ID,
		SenderType:  models.SenderUser,
		MessageType: models.MessageText,
		Content:     content,
		Timestamp:   m.stamp(),
	}
	if err := m.History.Append(msg.SessionID, msg); err != nil {
		return err
	}

	payload := UserMessagePayload{
		ID:        msg.ID,
		Content:   content,
		SocketID:  conn.ID,
		UserInfo:  conn.Profile,
		Timestamp: msg.Timestamp,
	}
	m.broadcastRoom(AdminRoom, "", models.Envelope{Event: models.EventUserMessage, Data: payload})
	return nil
}

func (m *ManagerService) handleAdminResponse(conn *Connection, data json.RawMessage) error {
	if !conn.Role.IsOperator() {
		return fmt.Errorf("%w: admin-response from role %s", ErrUnknownEvent, conn.Role)
	}
	var p models.AdminSendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	content := strings.TrimSpace(p.Content)
	if content == "" {
		return nil
	}

	senderType := models.SenderAdmin
	if conn.Role == RoleLawyer {
		senderType = models.SenderLawyer
	}
	payload := AdminMessagePayload{
		ID:             uuid.NewString(),
		Content:        content,
		TargetSocketID: p.TargetSocketID,
		SocketID:       conn.ID,
		AdminInfo:      conn.Profile,
		Timestamp:      m.stamp(),
	}
	env := models.Envelope{Event: models.EventAdminMessage, Data: payload}

	if p.TargetSocketID == "" {
		// Legacy broadcast mode: everyone but the sender, nothing stored.
		m.broadcastAll(conn.ID, env)
		return nil
	}

	// A target that was never seen gets no conversation log; the response is
	// a pure delivery miss. A disconnected target with an existing log still
	// collects the message for its next replay.
	key := m.adminKeyForID(p.TargetSocketID)
	if m.Registry.Has(p.TargetSocketID) || m.History.Len(key) > 0 {
		msg := models.Message{
			ID:          payload.ID,
			SessionID:   key,
			SenderID:    conn.ID,
			SenderType:  senderType,
			MessageType: models.MessageText,
			Content:     content,
			Timestamp:   payload.Timestamp,
		}
		if err := m.History.Append(key, msg); err != nil {
			return err
		}
	}

	m.deliverTo(p.TargetSocketID, env)
	m.broadcastRoom(AdminRoom, conn.ID, models.Envelope{Event: models.EventAdminSentMessage, Data: payload})
	return nil
}

func (m *ManagerService) handleUserTyping(conn *Connection, data json.RawMessage, start bool) error {
	var p models.TypingPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
	}

	notice := TypingNotice{SocketID: conn.ID}
	if start {
		m.Typing.SetTyping(AdminRoom, conn.ID)
		notice.Content = p.Content
		notice.UserInfo = &conn.Profile
		m.broadcastRoom(AdminRoom, "", models.Envelope{Event: models.EventUserTyping, Data: notice})
		return nil
	}
	m.Typing.ClearTyping(AdminRoom, conn.ID)
	m.broadcastRoom(AdminRoom, "", models.Envelope{Event: models.EventUserStopTyping, Data: notice})
	return nil
}

func (m *ManagerService) handleAdminTyping(conn *Connection, data json.RawMessage, start bool) error {
	var p models.TypingPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
	}

	event := models.EventAdminStopTyping
	if start {
		event = models.EventAdminTyping
	}
	notice := TypingNotice{TargetSocketID: p.TargetSocketID}
	env := models.Envelope{Event: event, Data: notice}

	if p.TargetSocketID != "" {
		room := RoomID(adminSessionPrefix + p.TargetSocketID)
		if start {
			m.Typing.SetTyping(room, conn.ID)
		} else {
			m.Typing.ClearTyping(room, conn.ID)
		}
		m.deliverTo(p.TargetSocketID, env)
		return nil
	}

	if start {
		m.Typing.SetTyping(AdminRoom, conn.ID)
	} else {
		m.Typing.ClearTyping(AdminRoom, conn.ID)
	}
	m.broadcastAll(conn.ID, env)
	return nil
}

// handleGetChatHistory replies to the requester only, serving the log of the
// chat session the requester currently belongs to, or its direct admin
// conversation when it is in none. The read may hit the persistence
// collaborator on a cold key, so it runs off the hub goroutine and hands the
// finished reply back through historyReadyCh; a requester that disconnected
// meanwhile is a delivery miss.
func (m *ManagerService) handleGetChatHistory(conn *Connection) {
	key := m.sessionKeyFor(conn.ID)
	if key == "" {
		key = m.adminKeyFor(conn)
	}
	m.readHistory(conn.ID, key, "")
}

// sessionKeyFor returns the history key of the chat session the connection is
// currently joined to, or empty when it is in none. The admin room and
// derived admin-conversation rooms are not sessions.
func (m *ManagerService) sessionKeyFor(connID string) string {
	for _, roomID := range m.Rooms.RoomsOf(connID) {
		if roomID == AdminRoom || strings.HasPrefix(string(roomID), adminSessionPrefix) {
			continue
		}
		return string(roomID)
	}
	return ""
}

func (m *ManagerService) handleGetUserHistory(conn *Connection, data json.RawMessage) error {
	var p models.HistoryRequestPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.SocketID == "" {
		return fmt.Errorf("%w: missing socketId", ErrInvalidHistoryKey)
	}
	m.readHistory(conn.ID, m.adminKeyForID(p.SocketID), p.SocketID)
	return nil
}

func (m *ManagerService) readHistory(requester, key, socketID string) {
	go func() {
		env := models.Envelope{
			Event: models.EventChatHistory,
			Data:  models.HistoryResponse{History: m.History.Read(key), SocketID: socketID},
		}
		select {
		case m.historyReadyCh <- historyReply{Conn: requester, Env: env}:
		case <-m.quitCh:
		}
	}()
}

func (m *ManagerService) handleTypingExpired(exp typingExpiry) {
	conn, ok := m.Registry.Get(exp.Conn)
	if !ok {
		return
	}
	if conn.Role.IsOperator() {
		notice := TypingNotice{}
		if target, found := strings.CutPrefix(string(exp.Room), adminSessionPrefix); found {
			notice.TargetSocketID = target
			m.deliverTo(target, models.Envelope{Event: models.EventAdminStopTyping, Data: notice})
			return
		}
		m.broadcastAll(conn.ID, models.Envelope{Event: models.EventAdminStopTyping, Data: notice})
		return
	}
	notice := TypingNotice{SocketID: conn.ID}
	m.broadcastRoom(AdminRoom, "", models.Envelope{Event: models.EventUserStopTyping, Data: notice})
}

// adminKeyFor keys the connection's direct admin conversation. The asserted
// user id wins when present so the log survives reconnects; otherwise the
// connection id has to do.
func (m *ManagerService) adminKeyFor(conn *Connection) string {
	if conn.Profile.UserID != "" {
		return adminSessionPrefix + conn.Profile.UserID
	}
	return adminSessionPrefix + conn.ID
}

// adminKeyForID resolves a socket id to its admin conversation key,
// tolerating ids that are no longer connected.
func (m *ManagerService) adminKeyForID(socketID string) string {
	if conn, ok := m.Registry.Get(socketID); ok {
		return m.adminKeyFor(conn)
	}
	return adminSessionPrefix + socketID
}

// recordSessionJoin upserts the session record with the new participant.
// Collaborator work, so it runs off the hub goroutine.
func (m *ManagerService) recordSessionJoin(sessionID, participant string) {
	if m.Storage == nil {
		return
	}
	go func() {
		session, err := m.Storage.GetSessionByID(sessionID)
		if err != nil {
			return // already logged by the storage layer
		}
		if session == nil {
			session = &models.ChatSession{
				SessionID: sessionID,
				IsActive:  true,
				StartedAt: time.Now(),
			}
		}
		if participant != "" && !session.HasParticipant(participant) {
			session.Participants = append(session.Participants, participant)
		}
		if err := m.Storage.SaveSession(session); err != nil {
			log.Printf("WARNING: Failed to record join for session %s: %v", sessionID, err)
		}
	}()
}

// participantID prefers the id asserted in the join payload, falling back to
// the profile and finally the connection id.
func participantID(conn *Connection, asserted string) string {
	if asserted != "" {
		return asserted
	}
	if conn.Profile.UserID != "" {
		return conn.Profile.UserID
	}
	return conn.ID
}

// senderIdentity picks the sender id to stamp on a chat message.
func senderIdentity(conn *Connection, p models.ChatSendPayload) string {
	switch {
	case p.LawyerID != "":
		return p.LawyerID
	case p.UserID != "":
		return p.UserID
	case conn.Profile.UserID != "":
		return conn.Profile.UserID
	}
	return conn.ID
}

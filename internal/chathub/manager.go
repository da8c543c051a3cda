package chathub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"lawchat/backend/internal/models"
	"lawchat/backend/internal/storage"
)

// InboundEvent is one decoded frame from a client, queued for the hub loop.
type InboundEvent struct {
	ClientID string
	Name     string
	Data     json.RawMessage
}

type typingExpiry struct {
	Room RoomID
	Conn string
}

// historyReply carries a finished history read back onto the hub loop so the
// unicast goes through deliverTo like every other delivery.
type historyReply struct {
	Conn string
	Env  models.Envelope
}

// ManagerService is the hub: a single goroutine consuming the channels below
// owns every mutation of connection, room, history and typing state, so
// handlers for different connections never race on shared structures. Reads
// for the HTTP surface go through the components' own locks.
type ManagerService struct {
	Clients map[string]Client

	// Channels
	IncomingCh   chan InboundEvent
	RegisterCh   chan Client
	UnregisterCh chan Client

	typingExpiredCh chan typingExpiry
	historyReadyCh  chan historyReply
	quitCh          chan struct{}
	quitOnce        sync.Once

	Registry *Registry
	Rooms    *RoomManager
	History  *HistoryStore
	Typing   *TypingTracker

	Storage   storage.Storage
	StartedAt time.Time

	stampMu   sync.Mutex
	lastStamp time.Time
}

// NewManagerService wires the hub and its components. typingTimeout of zero
// means DefaultTypingTimeout.
func NewManagerService(s storage.Storage, typingTimeout time.Duration) *ManagerService {
	m := &ManagerService{
		Clients:         make(map[string]Client),
		IncomingCh:      make(chan InboundEvent, 256),
		RegisterCh:      make(chan Client, 16),
		UnregisterCh:    make(chan Client, 16),
		typingExpiredCh: make(chan typingExpiry, 64),
		historyReadyCh:  make(chan historyReply, 64),
		quitCh:          make(chan struct{}),
		Registry:        NewRegistry(),
		Storage:         s,
		StartedAt:       time.Now(),
	}
	m.Rooms = NewRoomManager(m.Registry)
	m.History = NewHistoryStore(s)
	m.Typing = NewTypingTracker(typingTimeout, m.onTypingExpired)
	return m
}

// onTypingExpired re-enters the hub loop from a timer goroutine. Dropped when
// the hub is saturated or stopped; a lost auto-clear notification is
// harmless, the flag itself is already gone.
func (m *ManagerService) onTypingExpired(roomID RoomID, connID string) {
	select {
	case m.typingExpiredCh <- typingExpiry{Room: roomID, Conn: connID}:
	default:
	}
}

// Run is the hub loop. Start it once, as a goroutine.
func (m *ManagerService) Run() {
	for {
		select {
		case client := <-m.RegisterCh:
			m.handleRegister(client)

		case client := <-m.UnregisterCh:
			m.handleUnregister(client)

		case evt := <-m.IncomingCh:
			m.dispatch(evt)

		case exp := <-m.typingExpiredCh:
			m.handleTypingExpired(exp)

		case reply := <-m.historyReadyCh:
			m.deliverTo(reply.Conn, reply.Env)

		case <-m.quitCh:
			return
		}
	}
}

// Stop terminates the hub loop. Safe to call more than once.
func (m *ManagerService) Stop() {
	m.quitOnce.Do(func() { close(m.quitCh) })
}

func (m *ManagerService) handleRegister(client Client) {
	id := client.GetID()
	if _, err := m.Registry.Register(id); err != nil {
		log.Printf("WARNING: Rejecting duplicate registration for %s: %v", id, err)
		client.Close()
		return
	}
	m.Clients[id] = client
	log.Printf("Client connected: %s (total %d)", id, m.Registry.Count())
}

func (m *ManagerService) handleUnregister(client Client) {
	id := client.GetID()
	if current, ok := m.Clients[id]; !ok || current != client {
		// Already replaced or cleaned up.
		return
	}
	m.dropClient(client)
}

// dropClient runs full disconnect cleanup: typing flags, room memberships,
// registry record, presence announcements. Hub goroutine only.
func (m *ManagerService) dropClient(client Client) {
	id := client.GetID()
	m.Typing.ClearAll(id)
	m.Rooms.LeaveAll(id)
	delete(m.Clients, id)

	conn, err := m.Registry.Deregister(id)
	client.Close()
	if err != nil {
		return
	}
	log.Printf("Client disconnected: %s (total %d)", id, m.Registry.Count())

	switch {
	case conn.Role == RoleUser:
		m.announceUserDisconnected(conn)
	case conn.Role.IsOperator():
		m.announceAdminDisconnected(conn)
	}
}

// sendToClient hands an envelope to the client without ever blocking.
func sendToClient(client Client, env models.Envelope) bool {
	select {
	case client.GetSendChannel() <- env:
		return true
	default:
		return false
	}
}

// deliverTo delivers to one connection id. A full send buffer means the
// client is too slow to keep up and it is evicted. Hub goroutine only.
func (m *ManagerService) deliverTo(connID string, env models.Envelope) bool {
	client, ok := m.Clients[connID]
	if !ok {
		return false
	}
	if sendToClient(client, env) {
		return true
	}
	log.Printf("WARNING: Client %s too slow, evicting", connID)
	m.dropClient(client)
	return false
}

// broadcastRoom fans out to every live room member except exclude.
func (m *ManagerService) broadcastRoom(roomID RoomID, exclude string, env models.Envelope) int {
	return m.Rooms.Broadcast(roomID, exclude, func(connID string) bool {
		return m.deliverTo(connID, env)
	})
}

// broadcastAll fans out to every connected client except exclude. Legacy
// compatibility path for messages with no target room.
func (m *ManagerService) broadcastAll(exclude string, env models.Envelope) int {
	delivered := 0
	for id := range m.Clients {
		if id == exclude {
			continue
		}
		if m.deliverTo(id, env) {
			delivered++
		}
	}
	return delivered
}

// stamp returns a server-assigned timestamp, strictly non-decreasing for the
// lifetime of the process so history order always matches delivery order.
func (m *ManagerService) stamp() time.Time {
	m.stampMu.Lock()
	defer m.stampMu.Unlock()
	now := time.Now()
	if !now.After(m.lastStamp) {
		now = m.lastStamp.Add(time.Nanosecond)
	}
	m.lastStamp = now
	return now
}

// Uptime reports how long the hub has been running.
func (m *ManagerService) Uptime() time.Duration {
	return time.Since(m.StartedAt)
}

// Stats is the registry dump served on the HTTP surface.
type Stats struct {
	ConnectedUsers  int          `json:"connectedUsers"`
	ConnectedAdmins int          `json:"connectedAdmins"`
	TotalSessions   int          `json:"totalSessions"`
	Users           []Connection `json:"users"`
	Admins          []Connection `json:"admins"`
}

// Snapshot builds a point-in-time Stats from the registry and history store.
// Safe to call from any goroutine.
func (m *ManagerService) Snapshot() Stats {
	return Stats{
		ConnectedUsers:  m.Registry.CountByRole(RoleUser),
		ConnectedAdmins: m.Registry.CountOperators(),
		TotalSessions:   m.History.Keys(),
		Users:           m.Registry.ListByRole(RoleUser),
		Admins:          m.Registry.ListOperators(),
	}
}

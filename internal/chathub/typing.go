package chathub

import (
	"sync"
	"time"
)

// DefaultTypingTimeout is the debounce window after which a typing flag
// auto-clears without a refresh, matching observed client behaviour.
const DefaultTypingTimeout = 1000 * time.Millisecond

type typingKey struct {
	room RoomID
	conn string
}

// TypingTracker keeps the ephemeral "who is typing" state per room. Every
// entry carries a cancellable debounce timer; expiry re-enters the hub
// through the expired callback so the stop notification takes the normal
// fan-out path.
type TypingTracker struct {
	mu      sync.Mutex
	timeout time.Duration
	timers  map[typingKey]*time.Timer
	expired func(roomID RoomID, connID string)
}

// NewTypingTracker builds a tracker with the given debounce window
// (DefaultTypingTimeout when zero). expired is invoked from the timer
// goroutine after an entry auto-clears; it must not call back into the
// tracker synchronously.
func NewTypingTracker(timeout time.Duration, expired func(roomID RoomID, connID string)) *TypingTracker {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &TypingTracker{
		timeout: timeout,
		timers:  make(map[typingKey]*time.Timer),
		expired: expired,
	}
}

// SetTyping flags the connection as typing in the room, resetting the
// debounce timer if it already was.
func (t *TypingTracker) SetTyping(roomID RoomID, connID string) {
	key := typingKey{room: roomID, conn: connID}
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[key]; ok {
		timer.Reset(t.timeout)
		return
	}
	t.timers[key] = time.AfterFunc(t.timeout, func() {
		if t.clear(key) && t.expired != nil {
			t.expired(key.room, key.conn)
		}
	})
}

// ClearTyping removes the flag and cancels its timer. Returns whether the
// connection was flagged, so callers can skip redundant stop notifications.
func (t *TypingTracker) ClearTyping(roomID RoomID, connID string) bool {
	return t.clear(typingKey{room: roomID, conn: connID})
}

func (t *TypingTracker) clear(key typingKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	timer, ok := t.timers[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(t.timers, key)
	return true
}

// ClearAll cancels every typing flag held by the connection, in any room.
// Called on disconnect; no stop notifications are emitted.
func (t *TypingTracker) ClearAll(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, timer := range t.timers {
		if key.conn == connID {
			timer.Stop()
			delete(t.timers, key)
		}
	}
}

// TypingMembers snapshots the connections currently flagged in the room.
func (t *TypingTracker) TypingMembers(roomID RoomID) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	members := make([]string, 0)
	for key := range t.timers {
		if key.room == roomID {
			members = append(members, key.conn)
		}
	}
	return members
}

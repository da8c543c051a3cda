package chathub

// RoomID names a broadcast group: a chat session id, the reserved admin room,
// or a derived admin-conversation key.
type RoomID string

// AdminRoom is the reserved platform-operator broadcast room. Any connection
// identified as Lawyer or Admin joins it automatically.
const AdminRoom RoomID = "admin"

// RoomManager owns room membership sets, referencing connections by id only.
// A membership for an id missing from the registry is stale and is dropped
// lazily during snapshots and fan-out rather than treated as an error.
type RoomManager struct {
	registry *Registry
	rooms    map[RoomID]map[string]struct{}
	byConn   map[string]map[RoomID]struct{}
}

// NewRoomManager creates an empty manager bound to the registry it checks
// membership integrity against. Not safe for concurrent use; the hub
// goroutine serializes all calls.
func NewRoomManager(registry *Registry) *RoomManager {
	return &RoomManager{
		registry: registry,
		rooms:    make(map[RoomID]map[string]struct{}),
		byConn:   make(map[string]map[RoomID]struct{}),
	}
}

// Join adds the connection to the room. Idempotent.
func (rm *RoomManager) Join(roomID RoomID, connID string) error {
	if !rm.registry.Has(connID) {
		return ErrConnectionNotFound
	}
	members, ok := rm.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		rm.rooms[roomID] = members
	}
	members[connID] = struct{}{}

	joined, ok := rm.byConn[connID]
	if !ok {
		joined = make(map[RoomID]struct{})
		rm.byConn[connID] = joined
	}
	joined[roomID] = struct{}{}
	return nil
}

// Leave removes the connection from the room. Idempotent. Empty rooms are
// reclaimed immediately so churn cannot leak map entries.
func (rm *RoomManager) Leave(roomID RoomID, connID string) {
	if members, ok := rm.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(rm.rooms, roomID)
		}
	}
	if joined, ok := rm.byConn[connID]; ok {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(rm.byConn, connID)
		}
	}
}

// LeaveAll removes the connection from every room it belongs to.
func (rm *RoomManager) LeaveAll(connID string) {
	for roomID := range rm.byConn[connID] {
		if members, ok := rm.rooms[roomID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(rm.rooms, roomID)
			}
		}
	}
	delete(rm.byConn, connID)
}

// Members snapshots the room's live membership, dropping any id no longer in
// the registry.
func (rm *RoomManager) Members(roomID RoomID) []string {
	members, ok := rm.rooms[roomID]
	if !ok {
		return nil
	}
	snapshot := make([]string, 0, len(members))
	for connID := range members {
		if !rm.registry.Has(connID) {
			rm.Leave(roomID, connID)
			continue
		}
		snapshot = append(snapshot, connID)
	}
	return snapshot
}

// RoomsOf snapshots the rooms the connection currently belongs to.
func (rm *RoomManager) RoomsOf(connID string) []RoomID {
	joined := rm.byConn[connID]
	snapshot := make([]RoomID, 0, len(joined))
	for roomID := range joined {
		snapshot = append(snapshot, roomID)
	}
	return snapshot
}

// Contains reports whether the connection is a member of the room.
func (rm *RoomManager) Contains(roomID RoomID, connID string) bool {
	members, ok := rm.rooms[roomID]
	if !ok {
		return false
	}
	_, in := members[connID]
	return in
}

// Broadcast hands each live member except exclude to deliver, fire-and-forget.
// A deliver returning false marks the member stale and removes it from the
// room; one dead member never blocks or fails delivery to the rest. Returns
// the number of successful deliveries.
func (rm *RoomManager) Broadcast(roomID RoomID, exclude string, deliver func(connID string) bool) int {
	delivered := 0
	for _, connID := range rm.Members(roomID) {
		if connID == exclude {
			continue
		}
		if deliver(connID) {
			delivered++
		} else {
			rm.Leave(roomID, connID)
		}
	}
	return delivered
}

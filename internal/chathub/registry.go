package chathub

import (
	"sync"
	"time"

	"lawchat/backend/internal/models"
)

// Role is the connection's asserted role. Every connection starts Anonymous
// and may be upgraded exactly as the caller claims.
type Role string

const (
	RoleAnonymous Role = "ANONYMOUS"
	RoleUser      Role = "USER"
	RoleLawyer    Role = "LAWYER"
	RoleAdmin     Role = "ADMIN"
)

// IsOperator reports whether the role belongs in the admin room.
func (r Role) IsOperator() bool {
	return r == RoleLawyer || r == RoleAdmin
}

// Connection is one live client's registry record.
type Connection struct {
	ID          string             `json:"socketId"`
	Role        Role               `json:"role"`
	Profile     models.UserProfile `json:"userData"`
	ConnectedAt time.Time          `json:"connectedAt"`
}

// Registry tracks every live connection by id. It exclusively owns Connection
// records; room membership references them by id only.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Register creates an Anonymous record for the connection id.
func (r *Registry) Register(id string) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return nil, ErrAlreadyRegistered
	}
	conn := &Connection{
		ID:          id,
		Role:        RoleAnonymous,
		ConnectedAt: time.Now(),
	}
	r.conns[id] = conn
	return conn, nil
}

// Identify upgrades the connection's role and profile. Last write wins.
func (r *Registry) Identify(id string, role Role, profile models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	if !ok {
		return ErrConnectionNotFound
	}
	conn.Role = role
	conn.Profile = profile
	return nil
}

// Deregister removes and returns the record.
func (r *Registry) Deregister(id string) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	if !ok {
		return nil, ErrConnectionNotFound
	}
	delete(r.conns, id)
	return conn, nil
}

// Get looks up a connection without side effects.
func (r *Registry) Get(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// Has reports whether the id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[id]
	return ok
}

// Count returns the total number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CountByRole counts live connections holding the given role.
func (r *Registry) CountByRole(role Role) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, conn := range r.conns {
		if conn.Role == role {
			n++
		}
	}
	return n
}

// CountOperators counts Lawyer plus Admin connections.
func (r *Registry) CountOperators() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, conn := range r.conns {
		if conn.Role.IsOperator() {
			n++
		}
	}
	return n
}

// ListByRole snapshots every connection holding the given role.
func (r *Registry) ListByRole(role Role) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Connection, 0)
	for _, conn := range r.conns {
		if conn.Role == role {
			list = append(list, *conn)
		}
	}
	return list
}

// ListOperators snapshots every Lawyer and Admin connection.
func (r *Registry) ListOperators() []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Connection, 0)
	for _, conn := range r.conns {
		if conn.Role.IsOperator() {
			list = append(list, *conn)
		}
	}
	return list
}

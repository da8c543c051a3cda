package chathub

import "lawchat/backend/internal/models"

// UserPresencePayload announces user connect/disconnect to the admin room.
type UserPresencePayload struct {
	SocketID   string              `json:"socketId"`
	UserData   *models.UserProfile `json:"userData,omitempty"`
	TotalUsers int                 `json:"totalUsers"`
}

// AdminPresencePayload announces operator connect/disconnect to the admin room.
type AdminPresencePayload struct {
	SocketID    string `json:"socketId"`
	TotalAdmins int    `json:"totalAdmins"`
}

// Presence notifications are a stateless function of registry transitions.
// A zero-recipient broadcast (no operator online) is not an error.

func (m *ManagerService) announceUserConnected(conn *Connection) {
	m.broadcastRoom(AdminRoom, "", models.Envelope{
		Event: models.EventUserConnected,
		Data: UserPresencePayload{
			SocketID:   conn.ID,
			UserData:   &conn.Profile,
			TotalUsers: m.Registry.CountByRole(RoleUser),
		},
	})
}

func (m *ManagerService) announceUserDisconnected(conn *Connection) {
	m.broadcastRoom(AdminRoom, "", models.Envelope{
		Event: models.EventUserDisconnected,
		Data: UserPresencePayload{
			SocketID:   conn.ID,
			TotalUsers: m.Registry.CountByRole(RoleUser),
		},
	})
}

func (m *ManagerService) announceAdminConnected(conn *Connection) {
	m.broadcastRoom(AdminRoom, "", models.Envelope{
		Event: models.EventAdminConnected,
		Data: AdminPresencePayload{
			SocketID:    conn.ID,
			TotalAdmins: m.Registry.CountOperators(),
		},
	})
}

func (m *ManagerService) announceAdminDisconnected(conn *Connection) {
	m.broadcastRoom(AdminRoom, "", models.Envelope{
		Event: models.EventAdminDisconnected,
		Data: AdminPresencePayload{
			SocketID:    conn.ID,
			TotalAdmins: m.Registry.CountOperators(),
		},
	})
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// ChatSession is one user/lawyer conversation as persisted in PostgreSQL.
// It records who has taken part and whether the session is still live;
// the realtime membership itself lives only in the hub.
type ChatSession struct {
	// SessionID is the unique identifier for the chat session.
	SessionID string `gorm:"primaryKey"`
	// Participants is the set of user and lawyer ids seen joining the session.
	Participants pq.StringArray `gorm:"type:text[]"`
	// IsActive indicates whether the session is still open.
	IsActive bool
	// StartedAt is when the first participant joined.
	StartedAt time.Time
	// EndedAt is when the session was closed; zero while active.
	EndedAt time.Time
}

// HasParticipant reports whether id already appears in the participant list.
func (s *ChatSession) HasParticipant(id string) bool {
	for _, p := range s.Participants {
		if p == id {
			return true
		}
	}
	return false
}

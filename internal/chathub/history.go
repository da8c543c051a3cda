package chathub

import (
	"log"
	"strings"
	"sync"

	"lawchat/backend/internal/models"
	"lawchat/backend/internal/storage"
)

// HistoryStore is the session history log: an append-only in-memory log per
// key for the lifetime of the process, seeded from the persistence
// collaborator on the first read of a cold key. Appends go to both tiers;
// collaborator faults degrade to serving the in-memory log only.
type HistoryStore struct {
	mu      sync.Mutex
	logs    map[string][]models.Message
	seeded  map[string]bool
	storage storage.Storage
}

func NewHistoryStore(s storage.Storage) *HistoryStore {
	return &HistoryStore{
		logs:    make(map[string][]models.Message),
		seeded:  make(map[string]bool),
		storage: s,
	}
}

// Append records the message in the in-memory log and hands it to the
// collaborator off the caller's path. The in-memory append is the ordering
// point: messages read back for a key come out in append order.
func (hs *HistoryStore) Append(key string, msg models.Message) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidHistoryKey
	}
	hs.mu.Lock()
	hs.logs[key] = append(hs.logs[key], msg)
	// A key that sees an append before any read never needs seeding; the
	// process observed its whole live history.
	hs.mu.Unlock()

	if hs.storage != nil {
		go func(msg models.Message) {
			if err := hs.storage.SaveMessage(&msg); err != nil {
				log.Printf("WARNING: History persistence failed for key %s, serving cache only: %v", key, err)
			}
		}(msg)
	}
	return nil
}

// Read returns the full log for the key, oldest first. An unknown key yields
// an empty slice, never an error: history queries are informational. The
// first read of a cold key consults the collaborator; its failure degrades to
// whatever the in-memory log holds.
func (hs *HistoryStore) Read(key string) []models.Message {
	hs.mu.Lock()
	needSeed := hs.storage != nil && !hs.seeded[key] && len(hs.logs[key]) == 0
	hs.mu.Unlock()

	if needSeed {
		hs.seed(key)
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()
	snapshot := make([]models.Message, len(hs.logs[key]))
	copy(snapshot, hs.logs[key])
	return snapshot
}

// seed loads persisted history for a cold key. The collaborator call runs
// without holding the lock so a slow store never blocks appends.
func (hs *HistoryStore) seed(key string) {
	stored, err := hs.storage.GetSessionHistory(key)
	if err != nil {
		log.Printf("WARNING: History seed failed for key %s, serving cache only: %v", key, err)
		return
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()
	if hs.seeded[key] {
		return
	}
	hs.seeded[key] = true
	if len(stored) == 0 {
		return
	}
	// Persisted messages predate anything appended while the seed was in
	// flight; duplicates can only come from our own unflushed appends.
	live := hs.logs[key]
	merged := make([]models.Message, 0, len(stored)+len(live))
	seen := make(map[string]struct{}, len(stored))
	for _, msg := range stored {
		merged = append(merged, msg)
		seen[msg.ID] = struct{}{}
	}
	for _, msg := range live {
		if _, dup := seen[msg.ID]; !dup {
			merged = append(merged, msg)
		}
	}
	hs.logs[key] = merged
}

// Len reports the number of messages currently cached for the key.
func (hs *HistoryStore) Len(key string) int {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return len(hs.logs[key])
}

// Keys reports the number of distinct history keys cached in memory.
func (hs *HistoryStore) Keys() int {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return len(hs.logs)
}

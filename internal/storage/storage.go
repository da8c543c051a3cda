package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"lawchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Storage is the persistence collaborator consumed by the chat hub and the
// HTTP/CLI surfaces. Implementations must treat history reads as
// informational: an unknown session yields an empty slice, not an error.
type Storage interface {
	SaveMessage(msg *models.Message) error
	GetSessionHistory(sessionID string) ([]models.Message, error)

	SaveSession(session *models.ChatSession) error
	CloseSession(sessionID string) error
	GetActiveSessionIDs() ([]string, error)
	GetSessionByID(sessionID string) (*models.ChatSession, error)
}

const (
	historyKeyPrefix = "history:"
	activeSessionSet = "sessions:active"
)

// Service backs Storage with PostgreSQL for durable rows and Redis for a
// capped per-session recent-history list plus the active-session set.
// Redis faults degrade to PostgreSQL; they are logged, never surfaced.
type Service struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Ctx        context.Context
	HistoryCap int64
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client, historyCap int64) *Service {
	if historyCap <= 0 {
		historyCap = 200
	}
	return &Service{
		DB:         db,
		Redis:      rdb,
		Ctx:        context.Background(),
		HistoryCap: historyCap,
	}
}

// SaveMessage writes the message to PostgreSQL and pushes it onto the
// session's capped Redis list. The PostgreSQL write is authoritative.
func (s *Service) SaveMessage(msg *models.Message) error {
	row := models.HistoryFromMessage(msg)
	if err := s.DB.Create(row).Error; err != nil {
		log.Printf("ERROR: Failed to save message for session %s: %v", msg.SessionID, err)
		return err
	}
	s.cacheMessage(msg)
	return nil
}

func (s *Service) cacheMessage(msg *models.Message) {
	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	key := historyKeyPrefix + msg.SessionID
	pipe := s.Redis.TxPipeline()
	pipe.RPush(s.Ctx, key, payload)
	pipe.LTrim(s.Ctx, key, -s.HistoryCap, -1)
	if _, err := pipe.Exec(s.Ctx); err != nil {
		log.Printf("WARNING: Redis history cache write failed for %s: %v", msg.SessionID, err)
	}
}

// GetSessionHistory returns the session's messages oldest first, serving the
// Redis list when populated and falling back to PostgreSQL (then backfilling
// the list) on a cache miss.
func (s *Service) GetSessionHistory(sessionID string) ([]models.Message, error) {
	if cached, ok := s.historyFromCache(sessionID); ok {
		return cached, nil
	}

	var rows []models.ChatHistory
	err := s.DB.Where("session_id = ?", sessionID).Order("sent_at asc").Find(&rows).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.Message{}, nil
		}
		log.Printf("ERROR: Failed to get chat history for session %s: %v", sessionID, err)
		return nil, err
	}

	history := make([]models.Message, 0, len(rows))
	for i := range rows {
		history = append(history, rows[i].ToMessage())
	}
	s.backfillCache(sessionID, history)
	return history, nil
}

func (s *Service) historyFromCache(sessionID string) ([]models.Message, bool) {
	if s.Redis == nil {
		return nil, false
	}
	raw, err := s.Redis.LRange(s.Ctx, historyKeyPrefix+sessionID, 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	history := make([]models.Message, 0, len(raw))
	for _, item := range raw {
		var msg models.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			// A corrupt entry poisons the whole list; fall back to the DB.
			log.Printf("WARNING: Corrupt cached message in session %s: %v", sessionID, err)
			return nil, false
		}
		history = append(history, msg)
	}
	return history, true
}

func (s *Service) backfillCache(sessionID string, history []models.Message) {
	if s.Redis == nil || len(history) == 0 {
		return
	}
	start := 0
	if int64(len(history)) > s.HistoryCap {
		start = len(history) - int(s.HistoryCap)
	}
	values := make([]interface{}, 0, len(history)-start)
	for _, msg := range history[start:] {
		payload, err := json.Marshal(msg)
		if err != nil {
			return
		}
		values = append(values, payload)
	}
	if err := s.Redis.RPush(s.Ctx, historyKeyPrefix+sessionID, values...).Err(); err != nil {
		log.Printf("WARNING: Redis history backfill failed for %s: %v", sessionID, err)
	}
}

// SaveSession upserts the session record and marks it active.
func (s *Service) SaveSession(session *models.ChatSession) error {
	if err := s.DB.Save(session).Error; err != nil {
		log.Printf("ERROR: Failed to save session %s: %v", session.SessionID, err)
		return err
	}
	if s.Redis != nil {
		if err := s.Redis.SAdd(s.Ctx, activeSessionSet, session.SessionID).Err(); err != nil {
			log.Printf("WARNING: Redis active-session add failed for %s: %v", session.SessionID, err)
		}
	}
	return nil
}

// CloseSession marks the session ended in PostgreSQL and drops it from the
// Redis active set.
func (s *Service) CloseSession(sessionID string) error {
	err := s.DB.Model(&models.ChatSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  time.Now(),
		}).Error
	if err != nil {
		return err
	}
	if s.Redis != nil {
		if err := s.Redis.SRem(s.Ctx, activeSessionSet, sessionID).Err(); err != nil {
			log.Printf("WARNING: Redis active-session remove failed for %s: %v", sessionID, err)
		}
	}
	return nil
}

// GetActiveSessionIDs lists sessions still marked active, preferring the
// Redis set and falling back to PostgreSQL.
func (s *Service) GetActiveSessionIDs() ([]string, error) {
	if s.Redis != nil {
		ids, err := s.Redis.SMembers(s.Ctx, activeSessionSet).Result()
		if err == nil && len(ids) > 0 {
			return ids, nil
		}
	}

	var ids []string
	if err := s.DB.Model(&models.ChatSession{}).
		Where("is_active = ?", true).
		Pluck("session_id", &ids).Error; err != nil {
		log.Printf("ERROR: Failed to retrieve active session IDs: %v", err)
		return nil, err
	}
	return ids, nil
}

// GetSessionByID fetches one session record; nil without error when absent.
func (s *Service) GetSessionByID(sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.DB.Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to get session %s: %v", sessionID, err)
		return nil, err
	}
	return &session, nil
}

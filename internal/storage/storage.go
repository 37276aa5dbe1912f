package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"schoolchat/backend/internal/models"
)

// Redis keys used by the service.
const (
	banKeyPrefix    = "ban:"
	waitingQueueKey = "waiting_queue"
	feedChanPrefix  = "chat:"
)

// Storage is everything the handlers and the broker need from durable
// storage. The broker only uses the mirror subset (broker.Recorder); the
// rest serves identity, profiles, and operational tooling.
type Storage interface {
	CreateUser(user *models.User) error
	UpdateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UserIDsBySchool(school string) ([]string, error)

	IsUserBanned(userID string) (bool, error)
	BanUser(userID string, duration time.Duration) error
	UnbanUser(userID string) error

	SaveSession(rec *models.SessionRecord) error
	CloseSession(sessionID string) error
	CloseAllSessions() error
	GetActiveSessionRecords() ([]models.SessionRecord, error)

	SaveMessage(h *models.ChatHistory) error
	GetChatHistory(sessionID string) ([]models.ChatHistory, error)
	PublishMessage(sessionID string, msg models.Message) error

	AddWaiting(userID string) error
	RemoveWaiting(userID string) error
	ClearWaiting() error
	GetWaiting() ([]string, error)
}

// Service implements Storage on PostgreSQL (via GORM) and Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewService constructs the storage service. Redis may be nil for tooling
// that only touches the database.
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// CreateUser inserts a new user. The BeforeCreate hook assigns the ID.
func (s *Service) CreateUser(user *models.User) error {
	return s.DB.Create(user).Error
}

// UpdateUser persists profile changes.
func (s *Service) UpdateUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// GetUserByUsername returns the user, or nil without error when absent.
func (s *Service) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail returns the user, or nil without error when absent.
func (s *Service) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserIDsBySchool lists the IDs of every user registered under a school.
func (s *Service) UserIDsBySchool(school string) ([]string, error) {
	var ids []string
	if err := s.DB.Model(&models.User{}).
		Where("school = ?", school).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// IsUserBanned checks the ban flag in Redis.
func (s *Service) IsUserBanned(userID string) (bool, error) {
	status, err := s.Redis.Get(s.Ctx, banKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status != "", nil
}

// BanUser sets a ban flag that expires on its own.
func (s *Service) BanUser(userID string, duration time.Duration) error {
	return s.Redis.Set(s.Ctx, banKeyPrefix+userID, "active", duration).Err()
}

// UnbanUser clears the ban flag.
func (s *Service) UnbanUser(userID string) error {
	return s.Redis.Del(s.Ctx, banKeyPrefix+userID).Err()
}

// SaveSession upserts the durable session row.
func (s *Service) SaveSession(rec *models.SessionRecord) error {
	return s.DB.Save(rec).Error
}

// CloseSession marks the session row inactive.
func (s *Service) CloseSession(sessionID string) error {
	return s.DB.Model(&models.SessionRecord{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  gorm.Expr("NOW()"),
		}).Error
}

// CloseAllSessions marks every active session row inactive. Reset support.
func (s *Service) CloseAllSessions() error {
	return s.DB.Model(&models.SessionRecord{}).
		Where("is_active = ?", true).
		Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  gorm.Expr("NOW()"),
		}).Error
}

// GetActiveSessionRecords lists the session rows still marked active.
func (s *Service) GetActiveSessionRecords() ([]models.SessionRecord, error) {
	var recs []models.SessionRecord
	if err := s.DB.Where("is_active = ?", true).Find(&recs).Error; err != nil {
		log.Printf("ERROR: failed to load active session records: %v", err)
		return nil, err
	}
	return recs, nil
}

// SaveMessage appends a message to the durable history.
func (s *Service) SaveMessage(h *models.ChatHistory) error {
	if err := s.DB.Create(h).Error; err != nil {
		log.Printf("ERROR: failed to save message for session %s: %v", h.SessionID, err)
		return err
	}
	return nil
}

// GetChatHistory loads the persisted messages of a session, oldest first.
func (s *Service) GetChatHistory(sessionID string) ([]models.ChatHistory, error) {
	var history []models.ChatHistory
	if err := s.DB.Where("session_id = ?", sessionID).
		Order("created_at asc").
		Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

// PublishMessage pushes the message onto the session's Redis feed so
// external consumers (moderation, archiving) can tail live traffic.
func (s *Service) PublishMessage(sessionID string, msg models.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, feedChanPrefix+sessionID, payload).Err()
}

// AddWaiting mirrors a waiting entry into Redis.
func (s *Service) AddWaiting(userID string) error {
	return s.Redis.SAdd(s.Ctx, waitingQueueKey, userID).Err()
}

// RemoveWaiting drops a waiting entry from the Redis mirror.
func (s *Service) RemoveWaiting(userID string) error {
	return s.Redis.SRem(s.Ctx, waitingQueueKey, userID).Err()
}

// ClearWaiting empties the Redis waiting mirror.
func (s *Service) ClearWaiting() error {
	return s.Redis.Del(s.Ctx, waitingQueueKey).Err()
}

// GetWaiting lists the mirrored waiting user IDs.
func (s *Service) GetWaiting() ([]string, error) {
	return s.Redis.SMembers(s.Ctx, waitingQueueKey).Result()
}

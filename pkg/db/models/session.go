package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a DB-backed login session. Expiry is checked lazily on each use.
type Session struct {
	ID             string    `gorm:"column:id;primaryKey"`
	WorkerID       string    `gorm:"column:worker_id;not null;index"`
	DeviceInfo     string    `gorm:"column:device_info"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	LastActivityAt time.Time `gorm:"column:last_activity_at"`
	ExpiresAt      time.Time `gorm:"column:expires_at;not null"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsExpired reports whether the session has passed its expiry at the given time.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

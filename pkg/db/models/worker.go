package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
)

// Worker represents the canonical identity entity. Workers are never deleted;
// offboarding flips IsActive.
type Worker struct {
	ID                  string           `gorm:"column:id;primaryKey"`
	Name                string           `gorm:"column:name;not null"`
	Email               string           `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash        string           `gorm:"column:password_hash;not null"`
	Role                enums.WorkerRole `gorm:"column:role;not null;default:worker"`
	IsActive            bool             `gorm:"column:is_active;not null;default:true"`
	FailedLoginAttempts int              `gorm:"column:failed_login_attempts;not null;default:0"`
	LockedUntil         *time.Time       `gorm:"column:locked_until"`
	LastLoginAt         *time.Time       `gorm:"column:last_login_at"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *Worker) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// IsLocked reports whether the lockout window is still open at the given time.
func (w *Worker) IsLocked(now time.Time) bool {
	return w.LockedUntil != nil && now.Before(*w.LockedUntil)
}

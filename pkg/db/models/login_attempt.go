package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoginAttempt is the append-only authentication audit row. One row per
// attempt, success or failure, known or unknown email.
type LoginAttempt struct {
	ID            string    `gorm:"column:id;primaryKey"`
	WorkerID      *string   `gorm:"column:worker_id;index"`
	Email         string    `gorm:"column:email;not null;index"`
	AttemptedAt   time.Time `gorm:"column:attempted_at;autoCreateTime"`
	Success       bool      `gorm:"column:success;not null"`
	FailureReason *string   `gorm:"column:failure_reason"`
}

func (a *LoginAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

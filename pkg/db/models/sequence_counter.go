package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SequenceCounter backs GenerateSequentialID. One row is inserted per issued
// id; the next number in a scope+period is the row count plus one. Counting
// is safe only because all inserts happen inside the single-writer lane.
type SequenceCounter struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Scope     string    `gorm:"column:scope;not null;index:idx_sequence_scope_period"`
	Period    string    `gorm:"column:period;not null;index:idx_sequence_scope_period"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *SequenceCounter) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

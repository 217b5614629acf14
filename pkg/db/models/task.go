package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
)

// Task is an operational work item. The data layer only transitions its
// status; scheduling and display belong to excluded components.
type Task struct {
	ID               string           `gorm:"column:id;primaryKey"`
	BuildingID       string           `gorm:"column:building_id;not null;index"`
	AssignedWorkerID *string          `gorm:"column:assigned_worker_id;index"`
	Title            string           `gorm:"column:title;not null"`
	Status           enums.TaskStatus `gorm:"column:status;not null;default:pending"`
	CompletedAt      *time.Time       `gorm:"column:completed_at"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

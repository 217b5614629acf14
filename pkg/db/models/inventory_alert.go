package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
)

// InventoryAlert is opened by the ledger on a threshold crossing and closed
// explicitly by a worker action.
type InventoryAlert struct {
	ID             string          `gorm:"column:id;primaryKey"`
	ItemID         string          `gorm:"column:item_id;not null;index"`
	BuildingID     string          `gorm:"column:building_id;not null;index"`
	AlertType      enums.AlertType `gorm:"column:alert_type;not null"`
	ThresholdValue int             `gorm:"column:threshold_value;not null"`
	CurrentValue   int             `gorm:"column:current_value;not null"`
	IsResolved     bool            `gorm:"column:is_resolved;not null;default:false"`
	ResolvedAt     *time.Time      `gorm:"column:resolved_at"`
	ResolvedBy     *string         `gorm:"column:resolved_by"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (a *InventoryAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
)

// InventoryItem carries the derived stock state for one supply at one
// building. CurrentStock and Status are written exclusively by the ledger.
type InventoryItem struct {
	ID              string           `gorm:"column:id;primaryKey"`
	BuildingID      string           `gorm:"column:building_id;not null;index"`
	Name            string           `gorm:"column:name;not null"`
	Category        string           `gorm:"column:category;not null"`
	CurrentStock    int              `gorm:"column:current_stock;not null;default:0"`
	MinimumStock    int              `gorm:"column:minimum_stock;not null;default:0"`
	MaximumStock    int              `gorm:"column:maximum_stock;not null;default:0"`
	Unit            string           `gorm:"column:unit"`
	UnitCost        decimal.Decimal  `gorm:"column:unit_cost;type:numeric;not null"`
	Status          enums.ItemStatus `gorm:"column:status;not null;default:in_stock"`
	LastRestockedAt *time.Time       `gorm:"column:last_restocked_at"`
	IsActive        bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

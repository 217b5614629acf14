package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
)

// InventoryTransaction is one immutable ledger entry. StockBefore always
// equals the previous entry's StockAfter for the same item.
type InventoryTransaction struct {
	ID          string                `gorm:"column:id;primaryKey"`
	ItemID      string                `gorm:"column:item_id;not null;index"`
	WorkerID    string                `gorm:"column:worker_id;not null;index"`
	TaskID      *string               `gorm:"column:task_id;index"`
	Type        enums.TransactionType `gorm:"column:type;not null"`
	Quantity    int                   `gorm:"column:quantity;not null"`
	StockBefore int                   `gorm:"column:stock_before;not null"`
	StockAfter  int                   `gorm:"column:stock_after;not null"`
	UnitCost    decimal.Decimal       `gorm:"column:unit_cost;type:numeric;not null"`
	TotalCost   decimal.Decimal       `gorm:"column:total_cost;type:numeric;not null"`
	Reason      *string               `gorm:"column:reason"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (t *InventoryTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

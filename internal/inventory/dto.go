package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
)

// CreateItemInput describes a new supply tracked at one building.
type CreateItemInput struct {
	BuildingID   string          `json:"building_id" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Category     string          `json:"category" validate:"required"`
	CurrentStock int             `json:"current_stock" validate:"gte=0"`
	MinimumStock int             `json:"minimum_stock" validate:"gte=0"`
	MaximumStock int             `json:"maximum_stock" validate:"gte=0"`
	Unit         string          `json:"unit"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// ToModel converts the input into a persistable item with its derived status.
func (i CreateItemInput) ToModel() *models.InventoryItem {
	return &models.InventoryItem{
		BuildingID:   i.BuildingID,
		Name:         i.Name,
		Category:     i.Category,
		CurrentStock: i.CurrentStock,
		MinimumStock: i.MinimumStock,
		MaximumStock: i.MaximumStock,
		Unit:         i.Unit,
		UnitCost:     i.UnitCost,
		Status:       enums.StatusForStock(i.CurrentStock, i.MinimumStock),
		IsActive:     true,
	}
}

// RecordTransactionInput is one requested stock movement. Quantity is an
// absolute count for use/restock/waste/return and a signed delta for adjust.
type RecordTransactionInput struct {
	ItemID   string                `json:"item_id" validate:"required"`
	WorkerID string                `json:"worker_id" validate:"required"`
	TaskID   *string               `json:"task_id,omitempty"`
	Type     enums.TransactionType `json:"type" validate:"required"`
	Quantity int                   `json:"quantity"`
	Reason   *string               `json:"reason,omitempty"`
}

// TransactionResult reports the committed ledger entry plus derived state the
// caller usually needs right away.
type TransactionResult struct {
	Transaction *models.InventoryTransaction
	Item        *models.InventoryItem
	Alert       *models.InventoryAlert
	Clamped     bool
}

// ItemDTO is the read-side shape of an inventory item.
type ItemDTO struct {
	ID              string           `json:"id"`
	BuildingID      string           `json:"building_id"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	CurrentStock    int              `json:"current_stock"`
	MinimumStock    int              `json:"minimum_stock"`
	MaximumStock    int              `json:"maximum_stock"`
	Unit            string           `json:"unit"`
	UnitCost        decimal.Decimal  `json:"unit_cost"`
	Status          enums.ItemStatus `json:"status"`
	LastRestockedAt *time.Time       `json:"last_restocked_at,omitempty"`
}

// ItemFromModel maps the persistence model to its DTO.
func ItemFromModel(item *models.InventoryItem) *ItemDTO {
	return &ItemDTO{
		ID:              item.ID,
		BuildingID:      item.BuildingID,
		Name:            item.Name,
		Category:        item.Category,
		CurrentStock:    item.CurrentStock,
		MinimumStock:    item.MinimumStock,
		MaximumStock:    item.MaximumStock,
		Unit:            item.Unit,
		UnitCost:        item.UnitCost,
		Status:          item.Status,
		LastRestockedAt: item.LastRestockedAt,
	}
}

// LowStockRow is one line of the low stock report, ordered most urgent first.
type LowStockRow struct {
	ItemID       string           `json:"item_id"`
	BuildingID   string           `json:"building_id"`
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	CurrentStock int              `json:"current_stock"`
	MinimumStock int              `json:"minimum_stock"`
	Status       enums.ItemStatus `json:"status"`
	// ShortfallRatio is current/minimum; zero means fully depleted.
	ShortfallRatio float64 `json:"shortfall_ratio"`
}

// ValueRow aggregates on-hand value per building.
type ValueRow struct {
	BuildingID string          `json:"building_id"`
	ItemCount  int             `json:"item_count"`
	TotalValue decimal.Decimal `json:"total_value"`
}

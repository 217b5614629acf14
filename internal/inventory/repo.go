package inventory

import (
	"context"

	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
)

// Repository exposes read-side inventory persistence. Mutations go through
// the Service so they stay on the write lane.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an inventory repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetItem loads a single item by id.
func (r *Repository) GetItem(ctx context.Context, itemID string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns the active items at one building, name-ordered.
func (r *Repository) ListItems(ctx context.Context, buildingID string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("building_id = ? AND is_active = ?", buildingID, true).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ItemHistory returns the ledger entries for one item, newest first.
func (r *Repository) ItemHistory(ctx context.Context, itemID string, limit int) ([]models.InventoryTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.InventoryTransaction
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// OpenAlerts returns unresolved alerts, optionally scoped to one building.
func (r *Repository) OpenAlerts(ctx context.Context, buildingID string) ([]models.InventoryAlert, error) {
	query := r.db.WithContext(ctx).Where("is_resolved = ?", false)
	if buildingID != "" {
		query = query.Where("building_id = ?", buildingID)
	}

	var alerts []models.InventoryAlert
	if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// loadItemTx re-reads the item inside the caller's transaction so the ledger
// computes stock deltas against the committed state, not a stale snapshot.
func loadItemTx(tx *gorm.DB, itemID string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := tx.Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

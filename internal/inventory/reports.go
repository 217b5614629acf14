package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
	pkgerrors "github.com/thekingleo527/FrancoSphere-sub016/pkg/errors"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/pagination"
)

// LowStockReport lists items at or below their minimum, most depleted first.
// An empty buildingID spans the whole portfolio.
func (s *Service) LowStockReport(ctx context.Context, buildingID string) ([]LowStockRow, error) {
	query := s.repo.db.WithContext(ctx).
		Where("is_active = ? AND status IN ?", true,
			[]enums.ItemStatus{enums.ItemStatusLowStock, enums.ItemStatusOutOfStock})
	if buildingID != "" {
		query = query.Where("building_id = ?", buildingID)
	}

	var items []models.InventoryItem
	if err := query.Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading low stock items")
	}

	rows := make([]LowStockRow, 0, len(items))
	for _, item := range items {
		ratio := 0.0
		if item.MinimumStock > 0 {
			ratio = float64(item.CurrentStock) / float64(item.MinimumStock)
		}
		rows = append(rows, LowStockRow{
			ItemID:         item.ID,
			BuildingID:     item.BuildingID,
			Name:           item.Name,
			Category:       item.Category,
			CurrentStock:   item.CurrentStock,
			MinimumStock:   item.MinimumStock,
			Status:         item.Status,
			ShortfallRatio: ratio,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ShortfallRatio != rows[j].ShortfallRatio {
			return rows[i].ShortfallRatio < rows[j].ShortfallRatio
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

// InventoryValue sums on-hand value (stock x unit cost) for one building.
func (s *Service) InventoryValue(ctx context.Context, buildingID string) (decimal.Decimal, error) {
	if buildingID == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "building id is required")
	}

	var items []models.InventoryItem
	err := s.repo.db.WithContext(ctx).
		Where("is_active = ? AND building_id = ?", true, buildingID).
		Find(&items).Error
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading items for valuation")
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.CurrentStock))))
	}
	return total, nil
}

// PortfolioValue aggregates the same valuation across every building.
func (s *Service) PortfolioValue(ctx context.Context) ([]ValueRow, error) {
	var items []models.InventoryItem
	err := s.repo.db.WithContext(ctx).Where("is_active = ?", true).Find(&items).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading items for valuation")
	}

	totals := make(map[string]*ValueRow)
	for _, item := range items {
		row, ok := totals[item.BuildingID]
		if !ok {
			row = &ValueRow{BuildingID: item.BuildingID, TotalValue: decimal.Zero}
			totals[item.BuildingID] = row
		}
		row.ItemCount++
		row.TotalValue = row.TotalValue.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.CurrentStock))))
	}

	rows := make([]ValueRow, 0, len(totals))
	for _, row := range totals {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].BuildingID < rows[j].BuildingID })
	return rows, nil
}

// ItemHistory returns the ledger for one item, newest first.
func (s *Service) ItemHistory(ctx context.Context, itemID string, limit int) ([]models.InventoryTransaction, error) {
	if itemID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	entries, err := s.repo.ItemHistory(ctx, itemID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading item history")
	}
	return entries, nil
}

// HistoryPage is one cursor page of ledger entries plus the cursor for the
// next page; an empty NextCursor means the history is exhausted.
type HistoryPage struct {
	Entries    []models.InventoryTransaction
	NextCursor string
}

// ItemHistoryPage walks the ledger for one item newest first, one stable
// page at a time. Pages do not shift as new entries append.
func (s *Service) ItemHistoryPage(ctx context.Context, itemID string, params pagination.Params) (*HistoryPage, error) {
	if itemID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid history cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	query := s.repo.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var entries []models.InventoryTransaction
	if err := query.Find(&entries).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading item history page")
	}

	page := &HistoryPage{Entries: entries}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/config"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
	pkgerrors "github.com/thekingleo527/FrancoSphere-sub016/pkg/errors"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/events"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/logger"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/metrics"
)

// Service is the inventory ledger. Every stock movement is an append-only
// transaction row committed atomically with the derived item state.
type Service struct {
	client   *db.Client
	repo     *Repository
	cfg      config.InventoryConfig
	logg     *logger.Logger
	metrics  *metrics.LedgerMetrics
	bus      *events.Broadcaster
	validate *validator.Validate
}

// ServiceParams bundles the ledger's dependencies.
type ServiceParams struct {
	Client  *db.Client
	Repo    *Repository
	Config  config.InventoryConfig
	Logger  *logger.Logger
	Metrics *metrics.LedgerMetrics
	Bus     *events.Broadcaster
}

// NewService constructs the inventory ledger service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository is required")
	}
	switch params.Config.NegativeStockPolicy {
	case config.NegativeStockReject, config.NegativeStockClamp:
	default:
		return nil, fmt.Errorf("invalid negative stock policy %q", params.Config.NegativeStockPolicy)
	}
	return &Service{
		client:   params.Client,
		repo:     params.Repo,
		cfg:      params.Config,
		logg:     params.Logger,
		metrics:  params.Metrics,
		bus:      params.Bus,
		validate: validator.New(),
	}, nil
}

// CreateItem registers a new supply at a building.
func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (*ItemDTO, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inventory item")
	}
	if input.MaximumStock > 0 && input.MaximumStock < input.MinimumStock {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "maximum stock below minimum stock")
	}

	item := input.ToModel()
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(item).Error
	})
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "building not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating inventory item")
	}
	return ItemFromModel(item), nil
}

// RecordTransaction appends one ledger entry and updates the item's derived
// stock, status, and alerts in the same transaction. The entry's StockBefore
// is read inside the transaction, so concurrent writers always chain: each
// entry's StockBefore equals the previous entry's StockAfter.
func (s *Service) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*TransactionResult, error) {
	start := time.Now()

	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inventory transaction")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown transaction type %q", input.Type))
	}
	if input.Type == enums.TransactionTypeAdjust {
		if input.Quantity == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment quantity must be non-zero")
		}
	} else if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	result := &TransactionResult{}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		item, err := loadItemTx(tx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading inventory item")
		}
		if !item.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "inventory item is inactive")
		}

		before := item.CurrentStock
		after := before + stockDelta(input.Type, input.Quantity)
		if after < 0 {
			if s.cfg.NegativeStockPolicy == config.NegativeStockReject {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("insufficient stock: have %d, movement needs %d", before, -stockDelta(input.Type, input.Quantity)))
			}
			after = 0
			result.Clamped = true
		}

		moved := after - before
		if moved < 0 {
			moved = -moved
		}

		entry := &models.InventoryTransaction{
			ItemID:      item.ID,
			WorkerID:    input.WorkerID,
			TaskID:      input.TaskID,
			Type:        input.Type,
			Quantity:    input.Quantity,
			StockBefore: before,
			StockAfter:  after,
			UnitCost:    item.UnitCost,
			TotalCost:   item.UnitCost.Mul(decimal.NewFromInt(int64(moved))),
			Reason:      input.Reason,
		}
		if err := tx.Create(entry).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending ledger entry")
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"current_stock": after,
			"status":        enums.StatusForStock(after, item.MinimumStock),
			"updated_at":    now,
		}
		if input.Type == enums.TransactionTypeRestock {
			updates["last_restocked_at"] = now
		}
		if err := tx.Model(&models.InventoryItem{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating item stock")
		}

		// Alerts open only on the crossing, never on every transaction that
		// leaves the item below threshold.
		if alertType, crossed := thresholdCrossing(before, after, item.MinimumStock); crossed {
			alert := &models.InventoryAlert{
				ItemID:         item.ID,
				BuildingID:     item.BuildingID,
				AlertType:      alertType,
				ThresholdValue: item.MinimumStock,
				CurrentValue:   after,
			}
			if err := tx.Create(alert).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "opening inventory alert")
			}
			result.Alert = alert
		}

		item.CurrentStock = after
		item.Status = enums.StatusForStock(after, item.MinimumStock)
		item.UpdatedAt = now
		if input.Type == enums.TransactionTypeRestock {
			item.LastRestockedAt = &now
		}
		result.Transaction = entry
		result.Item = item
		return nil
	})
	if err != nil {
		var appErr *pkgerrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording inventory transaction")
	}

	s.metrics.IncTransaction(string(input.Type))
	s.metrics.ObserveDuration(string(input.Type), time.Since(start))
	if result.Alert != nil {
		s.metrics.IncAlert(string(result.Alert.AlertType))
		if s.logg != nil {
			s.logg.Warn(s.logg.WithItemID(ctx, result.Item.ID), "inventory threshold crossed")
		}
	}

	if s.bus != nil {
		s.bus.Publish(events.NewEvent(enums.EventKindInventoryUpdated).
			WithBuilding(result.Item.BuildingID).
			WithWorker(input.WorkerID).
			WithPayload(map[string]any{
				"item_id":     result.Item.ID,
				"type":        string(input.Type),
				"stock_after": result.Item.CurrentStock,
				"status":      string(result.Item.Status),
			}))
	}
	return result, nil
}

// stockDelta maps a movement to its signed effect on stock. Adjustments carry
// their own sign; everything else is an absolute count.
func stockDelta(txType enums.TransactionType, quantity int) int {
	switch txType {
	case enums.TransactionTypeUse, enums.TransactionTypeWaste:
		return -quantity
	case enums.TransactionTypeRestock, enums.TransactionTypeReturn:
		return quantity
	default:
		return quantity
	}
}

// thresholdCrossing reports whether this movement took the item from above
// its minimum to at-or-below it, and which alert applies.
func thresholdCrossing(before, after, minimum int) (enums.AlertType, bool) {
	if after > minimum || before <= minimum {
		return "", false
	}
	if after <= 0 {
		return enums.AlertTypeOutOfStock, true
	}
	return enums.AlertTypeLowStock, true
}

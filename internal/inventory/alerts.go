package inventory

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
	pkgerrors "github.com/thekingleo527/FrancoSphere-sub016/pkg/errors"
)

// OpenAlerts lists unresolved alerts, optionally scoped to one building.
func (s *Service) OpenAlerts(ctx context.Context, buildingID string) ([]models.InventoryAlert, error) {
	alerts, err := s.repo.OpenAlerts(ctx, buildingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing open alerts")
	}
	return alerts, nil
}

// ResolveAlert marks an alert handled by the given worker. Resolving an
// already-resolved alert is a no-op so retried requests stay safe.
func (s *Service) ResolveAlert(ctx context.Context, alertID, workerID string) error {
	if alertID == "" || workerID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "alert id and worker id are required")
	}

	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var alert models.InventoryAlert
		if err := tx.Where("id = ?", alertID).First(&alert).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading alert")
		}
		if alert.IsResolved {
			return nil
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"is_resolved": true,
			"resolved_at": now,
			"resolved_by": workerID,
		}
		if err := tx.Model(&models.InventoryAlert{}).Where("id = ?", alertID).Updates(updates).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving alert")
		}
		return nil
	})
}

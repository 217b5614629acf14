package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/internal/workers"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
	pkgerrors "github.com/thekingleo527/FrancoSphere-sub016/pkg/errors"
)

// CreateSession opens a new session for the worker with a fixed expiry.
func (s *Service) CreateSession(ctx context.Context, workerID, deviceInfo string) (string, error) {
	if strings.TrimSpace(workerID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "worker id is required")
	}

	now := time.Now().UTC()
	session := &models.Session{
		WorkerID:       workerID,
		DeviceInfo:     deviceInfo,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.authCfg.SessionTTL),
		IsActive:       true,
	}

	if err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(session).Error
	}); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return session.ID, nil
}

// ValidateSession resolves a session id to its worker. It returns (nil, nil)
// for anything that must fail closed: unknown id, revoked or expired session,
// deactivated worker. Expiry is lazy: the first validation after the deadline
// deactivates the row, and repeat validations behave identically.
func (s *Service) ValidateSession(ctx context.Context, sessionID string) (*workers.WorkerDTO, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil
	}

	var session models.Session
	err := s.client.DB().WithContext(ctx).
		Where("id = ? AND is_active = ?", sessionID, true).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}

	now := time.Now().UTC()
	if session.IsExpired(now) {
		if err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
			return tx.Model(&models.Session{}).
				Where("id = ?", session.ID).
				Update("is_active", false).Error
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire session")
		}
		return nil, nil
	}

	worker, err := s.workers.FindByID(ctx, session.WorkerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session worker")
	}
	if !worker.IsActive {
		return nil, nil
	}

	// activity refresh; expiry stays fixed
	if err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.Session{}).
			Where("id = ?", session.ID).
			Update("last_activity_at", now).Error
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh session activity")
	}

	return workers.FromModel(worker), nil
}

// Logout revokes every active session belonging to the worker.
func (s *Service) Logout(ctx context.Context, workerID string) error {
	if strings.TrimSpace(workerID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "worker id is required")
	}

	if err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.Session{}).
			Where("worker_id = ? AND is_active = ?", workerID, true).
			Update("is_active", false).Error
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke sessions")
	}
	return nil
}

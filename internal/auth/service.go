package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/internal/workers"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/config"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
	pkgerrors "github.com/thekingleo527/FrancoSphere-sub016/pkg/errors"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/logger"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/metrics"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/security"
)

// Service implements credential authentication with brute-force lockout and
// the DB-backed session lifecycle.
type Service struct {
	client   *db.Client
	workers  *workers.Repository
	authCfg  config.AuthConfig
	pwCfg    config.PasswordConfig
	logg     *logger.Logger
	metrics  *metrics.AuthMetrics
	validate *validator.Validate
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Client     *db.Client
	WorkerRepo *workers.Repository
	AuthConfig config.AuthConfig
	PWConfig   config.PasswordConfig
	Logger     *logger.Logger
	Metrics    *metrics.AuthMetrics
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.WorkerRepo == nil {
		return nil, fmt.Errorf("worker repository is required")
	}
	if params.AuthConfig.MaxFailedLogins <= 0 {
		return nil, fmt.Errorf("max failed logins must be positive")
	}
	if params.AuthConfig.LockoutDuration <= 0 {
		return nil, fmt.Errorf("lockout duration must be positive")
	}
	if params.AuthConfig.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Service{
		client:   params.Client,
		workers:  params.WorkerRepo,
		authCfg:  params.AuthConfig,
		pwCfg:    params.PWConfig,
		logg:     params.Logger,
		metrics:  params.Metrics,
		validate: validator.New(),
	}, nil
}

// Authenticate checks the credential against the worker keyed by email.
// Expected outcomes (wrong password, unknown user, locked account) come back
// as rejections inside the result; only storage failures return an error.
func (s *Service) Authenticate(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validate.Struct(input); err != nil {
		s.recordAttempt(ctx, nil, input.Email, false, auditUnknownEmail)
		s.metrics.IncAttempt("rejected")
		return rejected(ReasonInvalidCredentials), nil
	}

	worker, err := s.workers.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordAttempt(ctx, nil, input.Email, false, auditUnknownEmail)
			s.metrics.IncAttempt("rejected")
			return rejected(ReasonInvalidCredentials), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load worker")
	}

	if !worker.IsActive {
		s.recordAttempt(ctx, &worker.ID, input.Email, false, auditInactive)
		s.metrics.IncAttempt("rejected")
		return rejected(ReasonInvalidCredentials), nil
	}

	now := time.Now().UTC()
	if worker.IsLocked(now) {
		// rejected before the password is even checked
		s.recordAttempt(ctx, &worker.ID, input.Email, false, auditLockedOut)
		s.metrics.IncAttempt("locked")
		return rejected(ReasonLocked), nil
	}

	ok, err := security.VerifyPassword(input.Password, worker.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify credential")
	}

	if !ok {
		lockedNow := false
		err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
			var txErr error
			lockedNow, txErr = workers.RecordLoginFailure(tx, worker.ID, s.authCfg.MaxFailedLogins, now.Add(s.authCfg.LockoutDuration), now)
			return txErr
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login failure")
		}
		s.recordAttempt(ctx, &worker.ID, input.Email, false, auditWrongPassword)
		s.metrics.IncAttempt("rejected")
		if lockedNow {
			s.metrics.IncLockout()
			if s.logg != nil {
				s.logg.Warn(s.logg.WithWorkerID(ctx, worker.ID), "account locked after repeated failures")
			}
			return rejected(ReasonLocked), nil
		}
		return rejected(ReasonInvalidCredentials), nil
	}

	if err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return workers.RecordLoginSuccess(tx, worker.ID, now)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login success")
	}

	s.recordAttempt(ctx, &worker.ID, input.Email, true, "")
	s.metrics.IncAttempt("authenticated")

	worker.FailedLoginAttempts = 0
	worker.LockedUntil = nil
	worker.LastLoginAt = &now
	return &AuthResult{Worker: workers.FromModel(worker)}, nil
}

// ChangePassword verifies the current credential and swaps in a new hash.
func (s *Service) ChangePassword(ctx context.Context, workerID, current, next string) error {
	if strings.TrimSpace(next) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password is required")
	}

	worker, err := s.workers.FindByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "worker not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load worker")
	}

	ok, err := security.VerifyPassword(current, worker.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify credential")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, ReasonInvalidCredentials)
	}

	hash, err := security.HashPassword(next, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	if err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return workers.UpdatePasswordHash(tx, worker.ID, hash, time.Now().UTC())
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

// recordAttempt appends the audit row. Best-effort: a failed audit write is
// logged and must never change the authentication outcome.
func (s *Service) recordAttempt(ctx context.Context, workerID *string, email string, success bool, reason string) {
	attempt := &models.LoginAttempt{
		WorkerID:    workerID,
		Email:       email,
		AttemptedAt: time.Now().UTC(),
		Success:     success,
	}
	if reason != "" {
		attempt.FailureReason = &reason
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(attempt).Error
	})
	if err != nil && s.logg != nil {
		s.logg.Error(ctx, "login audit write failed", err)
	}
}

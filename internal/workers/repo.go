package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
)

// Repository exposes worker-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a workers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new worker and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateWorkerDTO) (*models.Worker, error) {
	worker := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(worker).Error; err != nil {
		return nil, err
	}
	return worker, nil
}

// FindByEmail retrieves the worker matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Worker, error) {
	var worker models.Worker
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&worker).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

// FindByID retrieves the worker with the given id.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Worker, error) {
	var worker models.Worker
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&worker).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

// Count reports the number of worker rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Worker{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// RecordLoginFailure bumps the failure counter inside the caller's write-lane
// transaction, locking the account once the counter reaches maxFailures. The
// counter is re-read inside the transaction so concurrent failures serialize
// instead of overwriting each other. An expired lock is cleared lazily here:
// the attempt is treated as the first failure of a fresh window. Returns
// whether the account is locked after this failure.
func RecordLoginFailure(tx *gorm.DB, workerID string, maxFailures int, lockUntil time.Time, now time.Time) (bool, error) {
	var worker models.Worker
	if err := tx.Where("id = ?", workerID).First(&worker).Error; err != nil {
		return false, err
	}

	// a concurrent attempt may have locked the account since the caller's
	// snapshot read; do not extend the window
	if worker.IsLocked(now) {
		return true, nil
	}

	attempts := worker.FailedLoginAttempts + 1
	if worker.LockedUntil != nil && !now.Before(*worker.LockedUntil) {
		attempts = 1
	}

	updates := map[string]any{
		"failed_login_attempts": attempts,
		"locked_until":          nil,
		"updated_at":            now,
	}
	locked := attempts >= maxFailures
	if locked {
		updates["locked_until"] = lockUntil
	}

	if err := tx.Model(&models.Worker{}).Where("id = ?", worker.ID).Updates(updates).Error; err != nil {
		return false, err
	}
	return locked, nil
}

// RecordLoginSuccess clears the failure state and stamps the last login time
// inside the caller's write-lane transaction.
func RecordLoginSuccess(tx *gorm.DB, workerID string, now time.Time) error {
	return tx.Model(&models.Worker{}).Where("id = ?", workerID).Updates(map[string]any{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
		"updated_at":            now,
	}).Error
}

// UpdatePasswordHash swaps the credential hash inside the caller's write-lane
// transaction.
func UpdatePasswordHash(tx *gorm.DB, workerID string, hash string, now time.Time) error {
	return tx.Model(&models.Worker{}).Where("id = ?", workerID).Updates(map[string]any{
		"password_hash": hash,
		"updated_at":    now,
	}).Error
}

package buildings

import (
	"context"

	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
)

// Repository exposes building reads. Buildings change rarely; the data layer
// treats them as near-static FK targets.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a buildings repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID retrieves one building.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Building, error) {
	var building models.Building
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&building).Error; err != nil {
		return nil, err
	}
	return &building, nil
}

// ListActive returns the active portfolio, name-ordered.
func (r *Repository) ListActive(ctx context.Context) ([]models.Building, error) {
	var buildings []models.Building
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&buildings).Error
	if err != nil {
		return nil, err
	}
	return buildings, nil
}

// Count reports the number of building rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Building{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

package workers

import (
	"time"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
)

// WorkerDTO is the transport shape that omits the credential hash.
type WorkerDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Role        enums.WorkerRole `json:"role"`
	IsActive    bool             `json:"is_active"`
	LastLoginAt *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CreateWorkerDTO holds the data required by the repo to persist a new worker.
type CreateWorkerDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Role         enums.WorkerRole
	IsActive     *bool
}

func FromModel(w *models.Worker) *WorkerDTO {
	if w == nil {
		return nil
	}

	return &WorkerDTO{
		ID:          w.ID,
		Name:        w.Name,
		Email:       w.Email,
		Role:        w.Role,
		IsActive:    w.IsActive,
		LastLoginAt: w.LastLoginAt,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func (c CreateWorkerDTO) ToModel() *models.Worker {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	role := c.Role
	if role == "" {
		role = enums.WorkerRoleWorker
	}

	return &models.Worker{
		Name:         c.Name,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         role,
		IsActive:     isActive,
	}
}

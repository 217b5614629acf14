package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/internal/inventory"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
	pkgerrors "github.com/thekingleo527/FrancoSphere-sub016/pkg/errors"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/events"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/logger"
)

// Service owns task status transitions and the supply consumption that
// accompanies task completion.
type Service struct {
	client   *db.Client
	ledger   *inventory.Service
	logg     *logger.Logger
	bus      *events.Broadcaster
	validate *validator.Validate
}

// ServiceParams bundles the task service dependencies.
type ServiceParams struct {
	Client *db.Client
	Ledger *inventory.Service
	Logger *logger.Logger
	Bus    *events.Broadcaster
}

// NewService constructs the task service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory service is required")
	}
	return &Service{
		client:   params.Client,
		ledger:   params.Ledger,
		logg:     params.Logger,
		bus:      params.Bus,
		validate: validator.New(),
	}, nil
}

// CreateTaskInput describes a new work item.
type CreateTaskInput struct {
	BuildingID       string  `json:"building_id" validate:"required"`
	Title            string  `json:"title" validate:"required"`
	AssignedWorkerID *string `json:"assigned_worker_id,omitempty"`
}

// CreateTask registers a pending task.
func (s *Service) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid task")
	}

	task := &models.Task{
		BuildingID:       input.BuildingID,
		AssignedWorkerID: input.AssignedWorkerID,
		Title:            input.Title,
		Status:           enums.TaskStatusPending,
	}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(task).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating task")
	}
	return task, nil
}

// StartTask moves a pending task to in_progress.
func (s *Service) StartTask(ctx context.Context, taskID, workerID string) (*models.Task, error) {
	return s.transition(ctx, taskID, workerID, enums.TaskStatusInProgress)
}

// CompleteTask marks a task done, stamps its completion time, and publishes
// a task_completed event once the transition commits.
func (s *Service) CompleteTask(ctx context.Context, taskID, workerID string) (*models.Task, error) {
	task, err := s.transition(ctx, taskID, workerID, enums.TaskStatusCompleted)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(events.NewEvent(enums.EventKindTaskCompleted).
			WithBuilding(task.BuildingID).
			WithWorker(workerID).
			WithPayload(map[string]any{
				"task_id": task.ID,
				"title":   task.Title,
			}))
	}
	return task, nil
}

// CancelTask abandons a task that has not finished.
func (s *Service) CancelTask(ctx context.Context, taskID, workerID string) (*models.Task, error) {
	return s.transition(ctx, taskID, workerID, enums.TaskStatusCancelled)
}

// SupplyUse is one line of supplies consumed while working a task.
type SupplyUse struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

// ConsumeSupplies records the supplies a worker used on a task as use
// transactions in the inventory ledger, each linked back to the task. Lines
// are recorded independently: a failed line reports its error but does not
// roll back lines already committed.
func (s *Service) ConsumeSupplies(ctx context.Context, taskID, workerID string, uses []SupplyUse) ([]*inventory.TransactionResult, error) {
	if taskID == "" || workerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id and worker id are required")
	}
	if len(uses) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no supply lines given")
	}
	for _, use := range uses {
		if err := s.validate.Struct(use); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supply line")
		}
	}

	task, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("task is %s and no longer accepts supply use", task.Status))
	}

	results := make([]*inventory.TransactionResult, 0, len(uses))
	for _, use := range uses {
		result, err := s.ledger.RecordTransaction(ctx, inventory.RecordTransactionInput{
			ItemID:   use.ItemID,
			WorkerID: workerID,
			TaskID:   &taskID,
			Type:     enums.TransactionTypeUse,
			Quantity: use.Quantity,
		})
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Service) load(ctx context.Context, taskID string) (*models.Task, error) {
	var task models.Task
	if err := s.client.DB().WithContext(ctx).Where("id = ?", taskID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading task")
	}
	return &task, nil
}

// transition applies a status change inside the write lane, re-reading the
// task so concurrent transitions serialize cleanly.
func (s *Service) transition(ctx context.Context, taskID, workerID string, next enums.TaskStatus) (*models.Task, error) {
	if taskID == "" || workerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id and worker id are required")
	}

	var task models.Task
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", taskID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading task")
		}
		if !allowedTransition(task.Status, next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move task from %s to %s", task.Status, next))
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":     next,
			"updated_at": now,
		}
		if next == enums.TaskStatusCompleted {
			updates["completed_at"] = now
			task.CompletedAt = &now
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", taskID).Updates(updates).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating task status")
		}
		task.Status = next
		task.UpdatedAt = now
		return nil
	})
	if err != nil {
		var appErr *pkgerrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transitioning task")
	}
	return &task, nil
}

// allowedTransition encodes the task lifecycle: pending -> in_progress ->
// completed, with cancellation possible from any non-terminal state and
// direct pending -> completed allowed for quick tasks.
func allowedTransition(from, to enums.TaskStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case enums.TaskStatusInProgress:
		return from == enums.TaskStatusPending
	case enums.TaskStatusCompleted:
		return from == enums.TaskStatusPending || from == enums.TaskStatusInProgress
	case enums.TaskStatusCancelled:
		return true
	default:
		return false
	}
}

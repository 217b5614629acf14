package events

import (
	"time"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
)

// DomainEvent is a lightweight cache-invalidation signal pushed to UI
// subscribers after a successful mutation. It carries identifiers, not
// state; the authoritative state always lives in the store and is re-fetched
// by the consumer.
type DomainEvent struct {
	Kind       enums.EventKind `json:"kind"`
	SourceRole string          `json:"source_role,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	BuildingID string          `json:"building_id,omitempty"`
	WorkerID   string          `json:"worker_id,omitempty"`
	Payload    map[string]any  `json:"payload,omitempty"`
}

// NewEvent stamps a domain event with the current time.
func NewEvent(kind enums.EventKind) DomainEvent {
	return DomainEvent{
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
	}
}

// WithBuilding attaches the building identifier.
func (e DomainEvent) WithBuilding(buildingID string) DomainEvent {
	e.BuildingID = buildingID
	return e
}

// WithWorker attaches the acting worker identifier.
func (e DomainEvent) WithWorker(workerID string) DomainEvent {
	e.WorkerID = workerID
	return e
}

// WithPayload attaches free-form payload data.
func (e DomainEvent) WithPayload(payload map[string]any) DomainEvent {
	e.Payload = payload
	return e
}

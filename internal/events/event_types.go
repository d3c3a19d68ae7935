package events

import (
	"time"

	"github.com/societyresolver/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintAssigned      EventType = "complaint_assigned"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventUserRegistered         EventType = "user_registered"
)

// Actor is the account that caused the event, when known.
type Actor struct {
	UserID *string `json:"user_id,omitempty"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id,omitempty"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ComplaintAssignedPayload payload.
type ComplaintAssignedPayload struct {
	WorkerID         string  `json:"worker_id"`
	PreviousWorkerID *string `json:"previous_worker_id,omitempty"`
}

// ComplaintStatusChangedPayload payload. FreedWorkerID is set when resolving
// released the assignee.
type ComplaintStatusChangedPayload struct {
	OldStatus     domain.ComplaintStatus `json:"old_status"`
	NewStatus     domain.ComplaintStatus `json:"new_status"`
	FreedWorkerID *string                `json:"freed_worker_id,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID     string             `json:"user_id"`
	Role       domain.Role        `json:"role"`
	WorkerType *domain.WorkerType `json:"worker_type,omitempty"`
}

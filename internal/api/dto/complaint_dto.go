package dto

import (
	"time"

	"github.com/societyresolver/complaint-service/internal/domain"
)

// CreateComplaintRequest payload for POST /complaints.
type CreateComplaintRequest struct {
	UserID      *string `json:"user_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// StatusRequest payload for PUT /complaints/:id/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// AssignRequest payload for PUT /complaints/:id/assign.
type AssignRequest struct {
	WorkerID string `json:"worker_id"`
}

// ComplaintResponse is the public view of a complaint.
type ComplaintResponse struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	Name        string                 `json:"name"`
	Category    string                 `json:"category"`
	Description string                 `json:"description"`
	Date        string                 `json:"date"`
	Status      domain.ComplaintStatus `json:"status"`
	AssignedTo  *string                `json:"assigned_to"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NewComplaintResponse converts a complaint.
func NewComplaintResponse(c *domain.Complaint) ComplaintResponse {
	return ComplaintResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		Name:        c.Name,
		Category:    c.Category,
		Description: c.Description,
		Date:        c.Date,
		Status:      c.Status,
		AssignedTo:  c.AssignedTo,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// NewComplaintResponses converts a listing.
func NewComplaintResponses(complaints []domain.Complaint) []ComplaintResponse {
	out := make([]ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		out = append(out, NewComplaintResponse(&complaints[i]))
	}
	return out
}

// HistoryResponse is one audit trail entry.
type HistoryResponse struct {
	ID          string                     `json:"id"`
	ComplaintID string                     `json:"complaint_id"`
	ChangedByID *string                    `json:"changed_by_id"`
	ChangeType  domain.ComplaintChangeType `json:"change_type"`
	OldValue    map[string]any             `json:"old_value"`
	NewValue    map[string]any             `json:"new_value"`
	CreatedAt   time.Time                  `json:"created_at"`
}

// NewHistoryResponses converts audit entries.
func NewHistoryResponses(entries []domain.ComplaintHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, h := range entries {
		out = append(out, HistoryResponse{
			ID:          h.ID,
			ComplaintID: h.ComplaintID,
			ChangedByID: h.ChangedByID,
			ChangeType:  h.ChangeType,
			OldValue:    h.OldValue,
			NewValue:    h.NewValue,
			CreatedAt:   h.CreatedAt,
		})
	}
	return out
}

package repository

import (
	"context"

	"github.com/societyresolver/complaint-service/internal/docstore"
	"github.com/societyresolver/complaint-service/internal/domain"
)

// ComplaintHistoryRepository stores audit entries.
type ComplaintHistoryRepository interface {
	Create(ctx context.Context, history *domain.ComplaintHistory) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintHistory, error)
}

type complaintHistoryRepository struct {
	ops docstore.Ops
}

// NewComplaintHistoryRepository builds repository.
func NewComplaintHistoryRepository(ops docstore.Ops) ComplaintHistoryRepository {
	return &complaintHistoryRepository{ops: ops}
}

func (r *complaintHistoryRepository) Create(ctx context.Context, history *domain.ComplaintHistory) error {
	return r.ops.Create(ctx, ComplaintHistoryCollection, history.ID, docstore.Fields{
		"complaint_id": history.ComplaintID,
		"changed_by":   stringOrNil(history.ChangedByID),
		"change_type":  string(history.ChangeType),
		"old_value":    history.OldValue,
		"new_value":    history.NewValue,
		"created_at":   formatTime(history.CreatedAt),
	})
}

func (r *complaintHistoryRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintHistory, error) {
	docs, err := r.ops.Query(ctx, ComplaintHistoryCollection, docstore.Eq("complaint_id", complaintID))
	if err != nil {
		return nil, err
	}
	sortByCreated(docs)

	result := make([]domain.ComplaintHistory, 0, len(docs))
	for _, doc := range docs {
		result = append(result, domain.ComplaintHistory{
			ID:          doc.ID,
			ComplaintID: doc.Fields.String("complaint_id"),
			ChangedByID: doc.Fields.StringPtr("changed_by"),
			ChangeType:  domain.ComplaintChangeType(doc.Fields.String("change_type")),
			OldValue:    doc.Fields.Map("old_value"),
			NewValue:    doc.Fields.Map("new_value"),
			CreatedAt:   parseTime(doc.Fields["created_at"]),
		})
	}
	return result, nil
}

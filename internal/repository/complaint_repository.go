package repository

import (
	"context"

	"github.com/societyresolver/complaint-service/internal/docstore"
	"github.com/societyresolver/complaint-service/internal/domain"
)

// ComplaintRepository defines persistence access for complaints.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Complaint, error)
	ListByWorker(ctx context.Context, workerID string) ([]domain.Complaint, error)
	ListAll(ctx context.Context) ([]domain.Complaint, error)
	// UpdateState writes status, assigned_to and updated_at.
	UpdateState(ctx context.Context, complaint *domain.Complaint) error
}

type complaintRepository struct {
	ops docstore.Ops
}

// NewComplaintRepository returns a repository over ops.
func NewComplaintRepository(ops docstore.Ops) ComplaintRepository {
	return &complaintRepository{ops: ops}
}

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	return r.ops.Create(ctx, ComplaintsCollection, complaint.ID, docstore.Fields{
		"user_id":     complaint.UserID,
		"name":        complaint.Name,
		"category":    complaint.Category,
		"description": complaint.Description,
		"date":        complaint.Date,
		"status":      string(complaint.Status),
		"assigned_to": stringOrNil(complaint.AssignedTo),
		"created_at":  formatTime(complaint.CreatedAt),
		"updated_at":  formatTime(complaint.UpdatedAt),
	})
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	doc, err := r.ops.Get(ctx, ComplaintsCollection, id)
	if err != nil {
		return nil, err
	}
	return complaintFromDocument(*doc), nil
}

func (r *complaintRepository) ListByUser(ctx context.Context, userID string) ([]domain.Complaint, error) {
	return r.list(ctx, docstore.Eq("user_id", userID))
}

func (r *complaintRepository) ListByWorker(ctx context.Context, workerID string) ([]domain.Complaint, error) {
	return r.list(ctx, docstore.Eq("assigned_to", workerID))
}

func (r *complaintRepository) ListAll(ctx context.Context) ([]domain.Complaint, error) {
	return r.list(ctx)
}

func (r *complaintRepository) UpdateState(ctx context.Context, complaint *domain.Complaint) error {
	return r.ops.Update(ctx, ComplaintsCollection, complaint.ID, docstore.Fields{
		"status":      string(complaint.Status),
		"assigned_to": stringOrNil(complaint.AssignedTo),
		"updated_at":  formatTime(complaint.UpdatedAt),
	})
}

func (r *complaintRepository) list(ctx context.Context, filters ...docstore.Filter) ([]domain.Complaint, error) {
	docs, err := r.ops.Query(ctx, ComplaintsCollection, filters...)
	if err != nil {
		return nil, err
	}
	sortByCreated(docs)

	complaints := make([]domain.Complaint, 0, len(docs))
	for _, doc := range docs {
		complaints = append(complaints, *complaintFromDocument(doc))
	}
	return complaints, nil
}

func complaintFromDocument(doc docstore.Document) *domain.Complaint {
	return &domain.Complaint{
		ID:          doc.ID,
		UserID:      doc.Fields.String("user_id"),
		Name:        doc.Fields.String("name"),
		Category:    doc.Fields.String("category"),
		Description: doc.Fields.String("description"),
		Date:        doc.Fields.String("date"),
		Status:      domain.ComplaintStatus(doc.Fields.String("status")),
		AssignedTo:  doc.Fields.StringPtr("assigned_to"),
		CreatedAt:   parseTime(doc.Fields["created_at"]),
		UpdatedAt:   parseTime(doc.Fields["updated_at"]),
	}
}

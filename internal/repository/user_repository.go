package repository

import (
	"context"
	"strings"

	"github.com/societyresolver/complaint-service/internal/docstore"
	"github.com/societyresolver/complaint-service/internal/domain"
)

// UserRepository defines persistence access for user profiles.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListWorkers(ctx context.Context, filter domain.WorkerFilter) ([]domain.User, error)
	SetAvailability(ctx context.Context, id string, available bool) error
}

type userRepository struct {
	ops docstore.Ops
}

// NewUserRepository returns a repository over ops, which may be a store or
// an open transaction.
func NewUserRepository(ops docstore.Ops) UserRepository {
	return &userRepository{ops: ops}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	var workerType *string
	if user.WorkerType != nil {
		wt := string(*user.WorkerType)
		workerType = &wt
	}
	return r.ops.Create(ctx, UsersCollection, user.ID, docstore.Fields{
		"username":    user.Username,
		"email":       strings.ToLower(user.Email),
		"role":        string(user.Role),
		"worker_type": stringOrNil(workerType),
		"available":   boolOrNil(user.Available),
		"created_at":  formatTime(user.CreatedAt),
	})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	doc, err := r.ops.Get(ctx, UsersCollection, id)
	if err != nil {
		return nil, err
	}
	return userFromDocument(*doc), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	docs, err := r.ops.Query(ctx, UsersCollection, docstore.Eq("email", strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, docstore.ErrNotFound
	}
	return userFromDocument(docs[0]), nil
}

func (r *userRepository) ListWorkers(ctx context.Context, filter domain.WorkerFilter) ([]domain.User, error) {
	filters := []docstore.Filter{docstore.Eq("role", string(domain.RoleWorker))}
	if filter.WorkerType != nil {
		filters = append(filters, docstore.Eq("worker_type", *filter.WorkerType))
	}
	if filter.Available != nil {
		filters = append(filters, docstore.Eq("available", *filter.Available))
	}

	docs, err := r.ops.Query(ctx, UsersCollection, filters...)
	if err != nil {
		return nil, err
	}
	sortByCreated(docs)

	workers := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		workers = append(workers, *userFromDocument(doc))
	}
	return workers, nil
}

func (r *userRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	return r.ops.Update(ctx, UsersCollection, id, docstore.Fields{"available": available})
}

func userFromDocument(doc docstore.Document) *domain.User {
	user := &domain.User{
		ID:        doc.ID,
		Username:  doc.Fields.String("username"),
		Email:     doc.Fields.String("email"),
		Role:      domain.Role(doc.Fields.String("role")),
		Available: doc.Fields.BoolPtr("available"),
		CreatedAt: parseTime(doc.Fields["created_at"]),
	}
	if wt := doc.Fields.StringPtr("worker_type"); wt != nil {
		workerType := domain.WorkerType(*wt)
		user.WorkerType = &workerType
	}
	return user
}

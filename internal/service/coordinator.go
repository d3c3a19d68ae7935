package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/societyresolver/complaint-service/internal/docstore"
	"github.com/societyresolver/complaint-service/internal/domain"
	"github.com/societyresolver/complaint-service/internal/events"
	"github.com/societyresolver/complaint-service/internal/identity"
	"github.com/societyresolver/complaint-service/internal/lock"
	"github.com/societyresolver/complaint-service/internal/observability"
	"github.com/societyresolver/complaint-service/internal/repository"
	apperrors "github.com/societyresolver/complaint-service/pkg/util/errorutil"
)

// maxLockAttempts bounds how often an operation re-reads the complaint when
// its assignee changed between the unlocked read and the locked transaction.
const maxLockAttempts = 3

var errAssigneeMoved = errors.New("complaint assignee changed while acquiring locks")

// Coordinator owns the rule tying a complaint's status to its assignee's
// availability. Every write that touches both runs in one store transaction
// under the complaint and worker locks.
type Coordinator struct {
	store      docstore.Store
	identity   identity.Provider
	locker     lock.Locker
	dispatcher events.Dispatcher
	sanitizer  *TextSanitizer
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// CoordinatorDependencies bundles collaborators.
type CoordinatorDependencies struct {
	Store      docstore.Store
	Identity   identity.Provider
	Locker     lock.Locker
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewCoordinator creates the coordinator. A nil Locker falls back to an
// in-process locker; a nil Logger discards output.
func NewCoordinator(deps CoordinatorDependencies) *Coordinator {
	c := &Coordinator{
		store:      deps.Store,
		identity:   deps.Identity,
		locker:     deps.Locker,
		dispatcher: deps.Dispatcher,
		sanitizer:  NewTextSanitizer(),
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if c.locker == nil {
		c.locker = lock.NewLocalLocker()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// CreateComplaintInput carries the fields a resident files.
type CreateComplaintInput struct {
	UserID      string
	Name        string
	Category    string
	Description string
	Date        string
}

// ComplaintQuery selects complaints by owner or by assignee. At most one
// field may be set; neither lists everything.
type ComplaintQuery struct {
	UserID   string
	WorkerID string
}

// CreateUserInput carries registration data.
type CreateUserInput struct {
	Username   string
	Email      string
	Password   string
	Role       domain.Role
	WorkerType *string
}

// CreateComplaint files a new open, unassigned complaint and returns its id.
func (c *Coordinator) CreateComplaint(ctx context.Context, input CreateComplaintInput) (id string, err error) {
	defer c.observe("CreateComplaint", time.Now(), &err)

	clean := CreateComplaintInput{
		UserID:      strings.TrimSpace(input.UserID),
		Name:        c.sanitizer.Clean(input.Name),
		Category:    c.sanitizer.Clean(input.Category),
		Description: c.sanitizer.Clean(input.Description),
		Date:        c.sanitizer.Clean(input.Date),
	}
	if missing := missingFields(map[string]string{
		"user_id":     clean.UserID,
		"name":        clean.Name,
		"category":    clean.Category,
		"description": clean.Description,
		"date":        clean.Date,
	}); len(missing) > 0 {
		return "", apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}

	now := c.now()
	complaint := &domain.Complaint{
		ID:          c.store.NewID(repository.ComplaintsCollection),
		UserID:      clean.UserID,
		Name:        clean.Name,
		Category:    clean.Category,
		Description: clean.Description,
		Date:        clean.Date,
		Status:      domain.ComplaintStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repository.NewComplaintRepository(c.store).Create(ctx, complaint); err != nil {
		return "", storeError(err)
	}

	c.publish(ctx, events.EventComplaintCreated, complaint.ID, events.ComplaintCreatedPayload{
		UserID:   complaint.UserID,
		Name:     complaint.Name,
		Category: complaint.Category,
	})
	return complaint.ID, nil
}

// GetComplaint returns one complaint.
func (c *Coordinator) GetComplaint(ctx context.Context, id string) (complaint *domain.Complaint, err error) {
	defer c.observe("GetComplaint", time.Now(), &err)

	complaint, err = repository.NewComplaintRepository(c.store).GetByID(ctx, id)
	if err != nil {
		return nil, complaintLookupError(err, id)
	}
	return complaint, nil
}

// ListComplaints lists complaints matching q.
func (c *Coordinator) ListComplaints(ctx context.Context, q ComplaintQuery) (complaints []domain.Complaint, err error) {
	defer c.observe("ListComplaints", time.Now(), &err)

	userID, workerID := strings.TrimSpace(q.UserID), strings.TrimSpace(q.WorkerID)
	repo := repository.NewComplaintRepository(c.store)
	switch {
	case userID != "" && workerID != "":
		return nil, apperrors.NewValidationError("filter by user_id or worker_id, not both", nil)
	case userID != "":
		complaints, err = repo.ListByUser(ctx, userID)
	case workerID != "":
		complaints, err = repo.ListByWorker(ctx, workerID)
	default:
		complaints, err = repo.ListAll(ctx)
	}
	if err != nil {
		return nil, storeError(err)
	}
	return complaints, nil
}

// ListComplaintsByUser lists complaints filed by userID.
func (c *Coordinator) ListComplaintsByUser(ctx context.Context, userID string) ([]domain.Complaint, error) {
	return c.ListComplaints(ctx, ComplaintQuery{UserID: userID})
}

// ListComplaintsByWorker lists complaints assigned to workerID.
func (c *Coordinator) ListComplaintsByWorker(ctx context.Context, workerID string) ([]domain.Complaint, error) {
	return c.ListComplaints(ctx, ComplaintQuery{WorkerID: workerID})
}

// ListAllComplaints lists every complaint.
func (c *Coordinator) ListAllComplaints(ctx context.Context) ([]domain.Complaint, error) {
	return c.ListComplaints(ctx, ComplaintQuery{})
}

// ComplaintHistory returns the audit trail of a complaint, oldest first.
func (c *Coordinator) ComplaintHistory(ctx context.Context, complaintID string) (history []domain.ComplaintHistory, err error) {
	defer c.observe("ComplaintHistory", time.Now(), &err)

	if _, err := repository.NewComplaintRepository(c.store).GetByID(ctx, complaintID); err != nil {
		return nil, complaintLookupError(err, complaintID)
	}
	history, err = repository.NewComplaintHistoryRepository(c.store).ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, storeError(err)
	}
	return history, nil
}

// AssignWorker puts workerID on the complaint, marks the complaint
// in_progress and the worker unavailable. A previous, different assignee is
// freed. Assigning the current assignee again changes nothing.
func (c *Coordinator) AssignWorker(ctx context.Context, complaintID, workerID string) (result *domain.Complaint, err error) {
	defer c.observe("AssignWorker", time.Now(), &err)

	complaintID, workerID = strings.TrimSpace(complaintID), strings.TrimSpace(workerID)
	if complaintID == "" || workerID == "" {
		return nil, apperrors.NewValidationError("complaint id and worker id are required", nil)
	}

	var (
		previous *string
		changed  bool
		oldState domain.ComplaintStatus
	)
	err = c.withComplaint(ctx, complaintID, []string{workerID}, func(ctx context.Context, tx docstore.Ops, complaint *domain.Complaint) error {
		users := repository.NewUserRepository(tx)
		worker, err := users.GetByID(ctx, workerID)
		if errors.Is(err, docstore.ErrNotFound) {
			return apperrors.NewInvalidAssignment("worker does not exist", map[string]any{"worker_id": workerID})
		}
		if err != nil {
			return err
		}
		if !worker.IsWorker() {
			return apperrors.NewInvalidAssignment("user is not a worker", map[string]any{"worker_id": workerID})
		}
		if complaint.Status == domain.ComplaintStatusResolved {
			return apperrors.NewInvalidAssignment("complaint is already resolved", map[string]any{"complaint_id": complaintID})
		}
		if complaint.IsAssignedTo(workerID) && complaint.Status == domain.ComplaintStatusInProgress {
			result = complaint
			return nil
		}
		if !complaint.IsAssignedTo(workerID) && !worker.IsAvailable() {
			return apperrors.NewInvalidAssignment("worker is not available", map[string]any{"worker_id": workerID})
		}

		previous = complaint.AssignedTo
		oldState = complaint.Status
		if previous != nil && *previous != workerID {
			if err := users.SetAvailability(ctx, *previous, true); err != nil && !errors.Is(err, docstore.ErrNotFound) {
				return err
			}
		}

		complaint.Status = domain.ComplaintStatusInProgress
		complaint.AssignedTo = &workerID
		complaint.UpdatedAt = c.now()
		if err := repository.NewComplaintRepository(tx).UpdateState(ctx, complaint); err != nil {
			return err
		}
		if err := users.SetAvailability(ctx, workerID, false); err != nil {
			return err
		}

		history := repository.NewComplaintHistoryRepository(tx)
		if err := c.recordChange(ctx, history, complaint.ID, domain.ChangeTypeAssignee,
			map[string]any{"assigned_to": stringOrNil(previous)},
			map[string]any{"assigned_to": workerID}); err != nil {
			return err
		}
		if oldState != complaint.Status {
			if err := c.recordChange(ctx, history, complaint.ID, domain.ChangeTypeStatus,
				map[string]any{"status": string(oldState)},
				map[string]any{"status": string(complaint.Status)}); err != nil {
				return err
			}
		}
		changed = true
		result = complaint
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		c.logger.Info("worker assigned",
			zap.String("complaint_id", complaintID),
			zap.String("worker_id", workerID),
			zap.Stringp("previous_worker_id", previous))
		c.publish(ctx, events.EventComplaintAssigned, complaintID, events.ComplaintAssignedPayload{
			WorkerID:         workerID,
			PreviousWorkerID: previous,
		})
		if oldState != domain.ComplaintStatusInProgress {
			c.publish(ctx, events.EventComplaintStatusChanged, complaintID, events.ComplaintStatusChangedPayload{
				OldStatus: oldState,
				NewStatus: domain.ComplaintStatusInProgress,
			})
		}
	}
	return result, nil
}

// UpdateStatus sets the complaint status. Resolving frees the assignee.
// Permitted moves are same-state, open to resolved and in_progress to
// resolved; assignment is the only way into in_progress.
func (c *Coordinator) UpdateStatus(ctx context.Context, complaintID string, status domain.ComplaintStatus) (result *domain.Complaint, err error) {
	defer c.observe("UpdateStatus", time.Now(), &err)

	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{
			"status":  string(status),
			"allowed": []string{string(domain.ComplaintStatusOpen), string(domain.ComplaintStatusInProgress), string(domain.ComplaintStatusResolved)},
		})
	}
	complaintID = strings.TrimSpace(complaintID)

	var (
		oldState domain.ComplaintStatus
		freed    *string
		changed  bool
	)
	err = c.withComplaint(ctx, complaintID, nil, func(ctx context.Context, tx docstore.Ops, complaint *domain.Complaint) error {
		oldState = complaint.Status
		if !oldState.CanTransition(status) {
			return apperrors.NewValidationError("status transition not allowed", map[string]any{
				"from": string(oldState),
				"to":   string(status),
			})
		}
		if oldState == status {
			result = complaint
			return nil
		}

		complaint.Status = status
		complaint.UpdatedAt = c.now()
		if err := repository.NewComplaintRepository(tx).UpdateState(ctx, complaint); err != nil {
			return err
		}
		if status == domain.ComplaintStatusResolved && complaint.AssignedTo != nil {
			err := repository.NewUserRepository(tx).SetAvailability(ctx, *complaint.AssignedTo, true)
			switch {
			case errors.Is(err, docstore.ErrNotFound):
				c.logger.Warn("assignee of resolved complaint has no profile",
					zap.String("complaint_id", complaint.ID), zap.String("worker_id", *complaint.AssignedTo))
			case err != nil:
				return err
			default:
				freed = complaint.AssignedTo
			}
		}
		if err := c.recordChange(ctx, repository.NewComplaintHistoryRepository(tx), complaint.ID, domain.ChangeTypeStatus,
			map[string]any{"status": string(oldState)},
			map[string]any{"status": string(status)}); err != nil {
			return err
		}
		changed = true
		result = complaint
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		c.publish(ctx, events.EventComplaintStatusChanged, complaintID, events.ComplaintStatusChangedPayload{
			OldStatus:     oldState,
			NewStatus:     status,
			FreedWorkerID: freed,
		})
	}
	return result, nil
}

// ListWorkers lists worker profiles matching filter.
func (c *Coordinator) ListWorkers(ctx context.Context, filter domain.WorkerFilter) (workers []domain.User, err error) {
	defer c.observe("ListWorkers", time.Now(), &err)

	if filter.WorkerType != nil {
		wt := strings.ToLower(strings.TrimSpace(*filter.WorkerType))
		filter.WorkerType = &wt
	}
	workers, err = repository.NewUserRepository(c.store).ListWorkers(ctx, filter)
	if err != nil {
		return nil, storeError(err)
	}
	return workers, nil
}

// CreateUser registers an identity account and stores the profile. Workers
// start available.
func (c *Coordinator) CreateUser(ctx context.Context, input CreateUserInput) (user *domain.User, err error) {
	defer c.observe("CreateUser", time.Now(), &err)

	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": string(role)})
	}

	username := c.sanitizer.Clean(input.Username)
	email := strings.TrimSpace(input.Email)
	if missing := missingFields(map[string]string{
		"username": username,
		"email":    email,
		"password": input.Password,
	}); len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}

	var workerType *domain.WorkerType
	if input.WorkerType != nil {
		if wt := strings.ToLower(strings.TrimSpace(*input.WorkerType)); wt != "" {
			t := domain.WorkerType(wt)
			workerType = &t
		}
	}
	switch {
	case role == domain.RoleWorker && workerType == nil:
		return nil, apperrors.NewValidationError("worker_type is required for workers", nil)
	case role != domain.RoleWorker && workerType != nil:
		return nil, apperrors.NewValidationError("worker_type is only allowed for workers", nil)
	}

	uid, err := c.identity.CreateAccount(ctx, email, input.Password, username)
	switch {
	case errors.Is(err, identity.ErrEmailExists):
		if uid, err = c.reclaimAccount(ctx, email, input.Password, err); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, identityError(err)
	}

	user = &domain.User{
		ID:         uid,
		Username:   username,
		Email:      strings.ToLower(email),
		Role:       role,
		WorkerType: workerType,
		CreatedAt:  c.now(),
	}
	if role == domain.RoleWorker {
		available := true
		user.Available = &available
	}
	if err := repository.NewUserRepository(c.store).Create(ctx, user); err != nil {
		c.logger.Error("identity account created without profile", zap.String("uid", uid), zap.Error(err))
		return nil, storeError(err)
	}

	c.publish(ctx, events.EventUserRegistered, "", events.UserRegisteredPayload{
		UserID:     user.ID,
		Role:       user.Role,
		WorkerType: user.WorkerType,
	})
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account. An existing admin with the
// same email is left as is.
func (c *Coordinator) EnsureAdmin(ctx context.Context, username, email, password string) (*domain.User, error) {
	user, err := c.CreateUser(ctx, CreateUserInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	})
	if !errors.Is(err, identity.ErrEmailExists) {
		return user, err
	}
	existing, lookupErr := c.GetUserByEmail(ctx, email)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if existing.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("bootstrap admin email belongs to a non-admin user")
	}
	return existing, nil
}

// reclaimAccount returns the uid of an existing account that has no profile,
// left behind when an earlier registration failed after CreateAccount. The
// caller must prove ownership with the account's password.
func (c *Coordinator) reclaimAccount(ctx context.Context, email, password string, exists error) (string, error) {
	session, err := c.identity.SignIn(ctx, email, password)
	if err != nil {
		return "", identityError(exists)
	}
	_, err = repository.NewUserRepository(c.store).GetByID(ctx, session.UID)
	switch {
	case err == nil:
		return "", identityError(exists)
	case !errors.Is(err, docstore.ErrNotFound):
		return "", storeError(err)
	}
	c.logger.Info("completing registration for account without profile", zap.String("uid", session.UID))
	return session.UID, nil
}

// VerifyToken validates an ID token with the identity provider.
func (c *Coordinator) VerifyToken(ctx context.Context, token string) (*domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.NewUnauthorized("missing token")
	}
	id, err := c.identity.VerifyToken(ctx, token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid or expired token")
	}
	return id, nil
}

// GetUser returns a profile by id.
func (c *Coordinator) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := repository.NewUserRepository(c.store).GetByID(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
	}
	if err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

// GetUserByEmail returns a profile by email address.
func (c *Coordinator) GetUserByEmail(ctx context.Context, email string) (user *domain.User, err error) {
	defer c.observe("GetUserByEmail", time.Now(), &err)

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	user, err = repository.NewUserRepository(c.store).GetByEmail(ctx, email)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	if err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

type complaintTxFunc func(ctx context.Context, tx docstore.Ops, complaint *domain.Complaint) error

// withComplaint runs fn in a transaction holding the locks of the complaint,
// of each worker in workerIDs and of the complaint's current assignee. The
// assignee is learned before locking, so it is re-checked inside the
// transaction and the whole sequence retried if it moved.
func (c *Coordinator) withComplaint(ctx context.Context, complaintID string, workerIDs []string, fn complaintTxFunc) error {
	if complaintID == "" {
		return apperrors.NewValidationError("complaint id is required", nil)
	}

	for attempt := 1; attempt <= maxLockAttempts; attempt++ {
		seen, err := repository.NewComplaintRepository(c.store).GetByID(ctx, complaintID)
		if err != nil {
			return complaintLookupError(err, complaintID)
		}

		keys := []string{lock.ComplaintKey(complaintID)}
		for _, id := range workerIDs {
			keys = append(keys, lock.WorkerKey(id))
		}
		if seen.AssignedTo != nil {
			keys = append(keys, lock.WorkerKey(*seen.AssignedTo))
		}

		err = c.runLocked(ctx, keys, func(ctx context.Context, tx docstore.Ops) error {
			complaint, err := repository.NewComplaintRepository(tx).GetByID(ctx, complaintID)
			if err != nil {
				return complaintLookupError(err, complaintID)
			}
			if !sameAssignee(seen.AssignedTo, complaint.AssignedTo) {
				return errAssigneeMoved
			}
			return fn(ctx, tx, complaint)
		})
		if errors.Is(err, errAssigneeMoved) {
			c.logger.Debug("assignee moved, retrying", zap.String("complaint_id", complaintID), zap.Int("attempt", attempt))
			continue
		}
		return err
	}
	return apperrors.NewStoreUnavailable(errAssigneeMoved)
}

func (c *Coordinator) runLocked(ctx context.Context, keys []string, fn docstore.TxFunc) error {
	unlock, err := c.locker.Lock(ctx, keys...)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	defer unlock()

	err = c.store.RunInTransaction(ctx, fn)
	if err == nil || errors.Is(err, errAssigneeMoved) {
		return err
	}
	return storeError(err)
}

func (c *Coordinator) recordChange(ctx context.Context, history repository.ComplaintHistoryRepository, complaintID string, change domain.ComplaintChangeType, oldValue, newValue map[string]any) error {
	return history.Create(ctx, &domain.ComplaintHistory{
		ID:          c.store.NewID(repository.ComplaintHistoryCollection),
		ComplaintID: complaintID,
		ChangedByID: ActorFromContext(ctx),
		ChangeType:  change,
		OldValue:    oldValue,
		NewValue:    newValue,
		CreatedAt:   c.now(),
	})
}

func (c *Coordinator) publish(ctx context.Context, eventType events.EventType, complaintID string, payload interface{}) {
	if c.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		ComplaintID: complaintID,
		Actor:       events.Actor{UserID: ActorFromContext(ctx)},
		Timestamp:   c.now(),
		Payload:     payload,
	}
	if err := c.dispatcher.Publish(ctx, event); err != nil {
		c.logger.Warn("event handlers failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func (c *Coordinator) observe(operation string, start time.Time, err *error) {
	outcome := "ok"
	if *err != nil {
		outcome = string(apperrors.KindOf(*err))
	}
	c.metrics.ObserveOperation(operation, outcome, time.Since(start))
}

// storeError passes domain errors through and classifies everything else as
// a store failure.
func storeError(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewStoreUnavailable(err)
}

func complaintLookupError(err error, id string) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return apperrors.NewNotFound("complaint", map[string]any{"complaint_id": id})
	}
	return storeError(err)
}

func identityError(err error) error {
	switch {
	case errors.Is(err, identity.ErrEmailExists):
		return apperrors.NewIdentityProviderError("email already registered", err)
	case errors.Is(err, identity.ErrInvalidEmail):
		return apperrors.NewIdentityProviderError("invalid email address", err)
	case errors.Is(err, identity.ErrWeakPassword):
		return apperrors.NewIdentityProviderError("password too weak", err)
	}
	return apperrors.NewIdentityProviderError("identity provider rejected the account", err)
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func missingFields(fields map[string]string) []string {
	var missing []string
	for _, name := range []string{"user_id", "name", "category", "description", "date", "username", "email", "password"} {
		if v, ok := fields[name]; ok && v == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

package domain

import "time"

// Role identifies what an account may do.
type Role string

const (
	RoleUser   Role = "user"
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleWorker, RoleAdmin:
		return true
	}
	return false
}

// WorkerType is a trade category. The set is open; these are the ones the UI offers.
type WorkerType string

const (
	WorkerTypePlumber     WorkerType = "plumber"
	WorkerTypeElectrician WorkerType = "electrician"
	WorkerTypeCarpenter   WorkerType = "carpenter"
	WorkerTypeCleaner     WorkerType = "cleaner"
	WorkerTypeOther       WorkerType = "other"
)

// User is a resident, worker or admin account.
//
// WorkerType and Available are non-nil exactly when Role is RoleWorker.
type User struct {
	ID         string
	Username   string
	Email      string
	Role       Role
	WorkerType *WorkerType
	Available  *bool
	CreatedAt  time.Time
}

// IsWorker reports whether the user can be assigned complaints.
func (u *User) IsWorker() bool {
	return u != nil && u.Role == RoleWorker
}

// IsAvailable reports whether the user is a worker free for assignment.
func (u *User) IsAvailable() bool {
	return u.IsWorker() && u.Available != nil && *u.Available
}

// WorkerFilter narrows a worker listing. Nil fields do not filter.
type WorkerFilter struct {
	WorkerType *string
	Available  *bool
}

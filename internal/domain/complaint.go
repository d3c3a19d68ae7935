package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "open"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
)

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusOpen, ComplaintStatusInProgress, ComplaintStatusResolved:
		return true
	}
	return false
}

// CanTransition reports whether UpdateStatus may move a complaint from s to next.
// Assignment is the only way into in_progress, and resolved is terminal.
func (s ComplaintStatus) CanTransition(next ComplaintStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case ComplaintStatusOpen, ComplaintStatusInProgress:
		return next == ComplaintStatusResolved
	}
	return false
}

// Complaint is a single reported issue.
type Complaint struct {
	ID          string
	UserID      string
	Name        string
	Category    string
	Description string
	Date        string
	Status      ComplaintStatus
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAssignedTo reports whether workerID currently holds the complaint.
func (c *Complaint) IsAssignedTo(workerID string) bool {
	return c.AssignedTo != nil && *c.AssignedTo == workerID
}

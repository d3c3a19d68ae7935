package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplaintStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to ComplaintStatus
		want     bool
	}{
		{ComplaintStatusOpen, ComplaintStatusOpen, true},
		{ComplaintStatusOpen, ComplaintStatusResolved, true},
		{ComplaintStatusOpen, ComplaintStatusInProgress, false},
		{ComplaintStatusInProgress, ComplaintStatusInProgress, true},
		{ComplaintStatusInProgress, ComplaintStatusResolved, true},
		{ComplaintStatusInProgress, ComplaintStatusOpen, false},
		{ComplaintStatusResolved, ComplaintStatusResolved, true},
		{ComplaintStatusResolved, ComplaintStatusOpen, false},
		{ComplaintStatusResolved, ComplaintStatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestStatusAndRoleValidity(t *testing.T) {
	assert.True(t, ComplaintStatusInProgress.Valid())
	assert.False(t, ComplaintStatus("closed").Valid())
	assert.True(t, RoleWorker.Valid())
	assert.False(t, Role("staff").Valid())
}

func TestUserAvailability(t *testing.T) {
	yes, no := true, false
	plumber := WorkerTypePlumber

	assert.True(t, (&User{Role: RoleWorker, WorkerType: &plumber, Available: &yes}).IsAvailable())
	assert.False(t, (&User{Role: RoleWorker, WorkerType: &plumber, Available: &no}).IsAvailable())
	assert.False(t, (&User{Role: RoleUser}).IsAvailable())
	assert.False(t, (*User)(nil).IsWorker())
}

func TestComplaintIsAssignedTo(t *testing.T) {
	bob := "bob"
	c := &Complaint{AssignedTo: &bob}
	assert.True(t, c.IsAssignedTo("bob"))
	assert.False(t, c.IsAssignedTo("carol"))
	assert.False(t, (&Complaint{}).IsAssignedTo("bob"))
}

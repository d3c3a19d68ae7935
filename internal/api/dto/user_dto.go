package dto

import (
	"time"

	"github.com/societyresolver/complaint-service/internal/domain"
)

// RegisterRequest payload for POST /register.
type RegisterRequest struct {
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	UserType   string  `json:"user_type"`
	WorkerType *string `json:"worker_type"`
}

// LoginRequest payload for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse mirrors what existing clients read after sign-up.
type RegisterResponse struct {
	Message string `json:"message"`
	UID     string `json:"uid"`
}

// LoginResponse carries the bearer token and the caller's profile.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	UID       string       `json:"uid"`
	Role      domain.Role  `json:"role"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public view of a profile.
type UserResponse struct {
	UID        string             `json:"uid"`
	Username   string             `json:"username"`
	Email      string             `json:"email"`
	UserType   domain.Role        `json:"user_type"`
	WorkerType *domain.WorkerType `json:"worker_type,omitempty"`
	Available  *bool              `json:"available,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewUserResponse converts a profile.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UID:        u.ID,
		Username:   u.Username,
		Email:      u.Email,
		UserType:   u.Role,
		WorkerType: u.WorkerType,
		Available:  u.Available,
		CreatedAt:  u.CreatedAt,
	}
}

// NewUserResponses converts a listing.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

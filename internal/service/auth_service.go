package service

import (
	"context"
	"errors"
	"strings"

	"github.com/societyresolver/complaint-service/internal/domain"
	"github.com/societyresolver/complaint-service/internal/identity"
	apperrors "github.com/societyresolver/complaint-service/pkg/util/errorutil"
)

// LoginResult is a signed-in session together with the caller's profile.
type LoginResult struct {
	Session *domain.Session
	User    *domain.User
}

// AuthService handles sign-in and turns bearer tokens into profiles.
type AuthService struct {
	identity    identity.Provider
	coordinator *Coordinator
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Identity    identity.Provider
	Coordinator *Coordinator
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{identity: deps.Identity, coordinator: deps.Coordinator}
}

// Login checks credentials with the identity provider and loads the profile.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}
	session, err := s.identity.SignIn(ctx, email, password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return nil, apperrors.NewUnauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperrors.NewIdentityProviderError("sign-in failed", err)
	}

	user, err := s.coordinator.GetUser(ctx, session.UID)
	if apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, apperrors.NewUnauthorized("account has no profile")
	}
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: session, User: user}, nil
}

// Authenticate verifies a bearer token and returns the caller's profile.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.coordinator.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.coordinator.GetUser(ctx, id.UID)
	if apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, apperrors.NewUnauthorized("account has no profile")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/societyresolver/complaint-service/internal/domain"
	"github.com/societyresolver/complaint-service/internal/service"
	apperrors "github.com/societyresolver/complaint-service/pkg/util/errorutil"
)

type stubAuthenticator map[string]*domain.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, apperrors.NewUnauthorized("invalid or expired token")
}

func newTestApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	handlers = append(handlers, func(c *fiber.Ctx) error {
		actor := service.ActorFromContext(c.UserContext())
		if actor == nil {
			return c.SendString("")
		}
		return c.SendString(*actor)
	})
	app.Get("/", handlers...)
	return app
}

func request(t *testing.T, app *fiber.App, header string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(fiber.HeaderAuthorization, header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthMiddleware(t *testing.T) {
	stub := stubAuthenticator{
		"admin-token": {ID: "a1", Role: domain.RoleAdmin},
		"user-token":  {ID: "u1", Role: domain.RoleUser},
	}
	mw := NewAuthMiddleware(stub)

	tests := []struct {
		name   string
		header string
		chain  []fiber.Handler
		want   int
	}{
		{"missing header", "", []fiber.Handler{mw.Handle}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", []fiber.Handler{mw.Handle}, http.StatusUnauthorized},
		{"unknown token", "Bearer nope", []fiber.Handler{mw.Handle}, http.StatusUnauthorized},
		{"valid token", "Bearer user-token", []fiber.Handler{mw.Handle}, http.StatusOK},
		{"lowercase scheme", "bearer user-token", []fiber.Handler{mw.Handle}, http.StatusOK},
		{"role denied", "Bearer user-token", []fiber.Handler{mw.Handle, RequireRole(domain.RoleAdmin)}, http.StatusForbidden},
		{"role allowed", "Bearer admin-token", []fiber.Handler{mw.Handle, RequireRole(domain.RoleAdmin)}, http.StatusOK},
		{"no principal", "", []fiber.Handler{RequireRole(domain.RoleAdmin)}, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, request(t, newTestApp(tc.chain...), tc.header))
		})
	}
}

func TestAuthMiddlewareSetsActor(t *testing.T) {
	app := newTestApp(NewAuthMiddleware(stubAuthenticator{"t": {ID: "u42", Role: domain.RoleUser}}).Handle)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer t")
	resp, err := app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "u42", string(body))
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, IsAdmin(&domain.User{Role: domain.RoleAdmin}))
	assert.False(t, IsAdmin(&domain.User{Role: domain.RoleWorker}))
	assert.False(t, IsAdmin(nil))
}

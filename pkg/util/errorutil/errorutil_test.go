package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryKindAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"not found", NewNotFound("complaint", nil), KindNotFound, http.StatusNotFound},
		{"validation", NewValidationError("bad", nil), KindInvalidInput, http.StatusBadRequest},
		{"assignment", NewInvalidAssignment("busy", nil), KindInvalidAssignment, http.StatusConflict},
		{"identity", NewIdentityProviderError("dup", errors.New("email exists")), KindIdentityProvider, http.StatusBadRequest},
		{"unauthorized", NewUnauthorized("no token"), KindUnauthenticated, http.StatusUnauthorized},
		{"forbidden", NewForbidden("nope"), KindForbidden, http.StatusForbidden},
		{"store", NewStoreUnavailable(errors.New("conn reset")), KindStoreUnavailable, http.StatusServiceUnavailable},
		{"internal", NewInternalError(errors.New("boom")), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.kind, de.Kind)
			assert.Equal(t, tt.status, de.HTTPStatus)
			assert.True(t, IsKind(tt.err, tt.kind))
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestIsKindSeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("assign: %w", NewNotFound("complaint", map[string]any{"complaint_id": "c1"}))

	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindInvalidInput))
	assert.Equal(t, "c1", ToDomainError(wrapped).Details["complaint_id"])
}

func TestToDomainErrorForeignErrors(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))

	de := ToDomainError(errors.New("socket closed"))
	assert.Equal(t, KindInternal, de.Kind)
	assert.Equal(t, "internal server error", de.Message)
	assert.EqualError(t, de, "internal server error: socket closed")

	de = ToDomainError(fiber.NewError(http.StatusNotFound, "Cannot GET /nope"))
	assert.Equal(t, KindNotFound, de.Kind)
	assert.Equal(t, "Cannot GET /nope", de.Message)

	de = ToDomainError(fiber.NewError(http.StatusBadRequest, "bad body"))
	assert.Equal(t, KindInvalidInput, de.Kind)

	de = ToDomainError(fiber.NewError(http.StatusBadGateway, "upstream"))
	assert.Equal(t, KindInternal, de.Kind)
}

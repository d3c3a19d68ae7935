package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/societyresolver/complaint-service/internal/api/dto"
	"github.com/societyresolver/complaint-service/internal/domain"
	"github.com/societyresolver/complaint-service/internal/service"
	apperrors "github.com/societyresolver/complaint-service/pkg/util/errorutil"
)

// UsersHandler exposes registration, sign-in and profile lookup.
type UsersHandler struct {
	coordinator *service.Coordinator
	auth        *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(coordinator *service.Coordinator, authService *service.AuthService) *UsersHandler {
	return &UsersHandler{coordinator: coordinator, auth: authService}
}

// Register handles POST /register. Admin accounts cannot be self-registered.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	return h.createUser(c, false)
}

// CreateUser handles POST /users for admins and accepts every role.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	return h.createUser(c, true)
}

func (h *UsersHandler) createUser(c *fiber.Ctx, allowAdmin bool) error {
	var req dto.RegisterRequest
	if err := dto.Decode(c.Body(), &req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	role := domain.Role(strings.ToLower(strings.TrimSpace(req.UserType)))
	if role == domain.RoleAdmin && !allowAdmin {
		return apperrors.NewForbidden("admin accounts cannot self-register")
	}

	user, err := h.coordinator.CreateUser(c.UserContext(), service.CreateUserInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Role:       role,
		WorkerType: req.WorkerType,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{Message: "User created", UID: user.ID})
}

// Login handles POST /login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := dto.Decode(c.Body(), &req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt,
		UID:       result.User.ID,
		Role:      result.User.Role,
		User:      dto.NewUserResponse(result.User),
	})
}

// UserByEmail handles GET /user-by-email.
func (h *UsersHandler) UserByEmail(c *fiber.Ctx) error {
	user, err := h.coordinator.GetUserByEmail(c.UserContext(), c.Query("email"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

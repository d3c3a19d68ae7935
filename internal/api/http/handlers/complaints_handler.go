package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/societyresolver/complaint-service/internal/api/dto"
	"github.com/societyresolver/complaint-service/internal/auth"
	"github.com/societyresolver/complaint-service/internal/domain"
	"github.com/societyresolver/complaint-service/internal/service"
	apperrors "github.com/societyresolver/complaint-service/pkg/util/errorutil"
)

// ComplaintsHandler manages complaint endpoints.
type ComplaintsHandler struct {
	coordinator *service.Coordinator
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(coordinator *service.Coordinator) *ComplaintsHandler {
	return &ComplaintsHandler{coordinator: coordinator}
}

// CreateComplaint POST /complaints. Residents file for themselves; admins may
// file on behalf of any user.
func (h *ComplaintsHandler) CreateComplaint(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateComplaintRequest
	if err := dto.Decode(c.Body(), &req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	userID := principal.ID
	if req.UserID != nil && strings.TrimSpace(*req.UserID) != "" {
		userID = strings.TrimSpace(*req.UserID)
	}
	if userID != principal.ID && !auth.IsAdmin(principal) {
		return apperrors.NewForbidden("cannot file complaints for another user")
	}

	ctx := c.UserContext()
	id, err := h.coordinator.CreateComplaint(ctx, service.CreateComplaintInput{
		UserID:      userID,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		return err
	}
	complaint, err := h.coordinator.GetComplaint(ctx, id)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewComplaintResponse(complaint))
}

// ListComplaints GET /complaints.
func (h *ComplaintsHandler) ListComplaints(c *fiber.Ctx) error {
	complaints, err := h.coordinator.ListComplaints(c.UserContext(), service.ComplaintQuery{
		UserID:   c.Query("user_id"),
		WorkerID: c.Query("worker_id"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"complaints": dto.NewComplaintResponses(complaints)})
}

// GetComplaint GET /complaints/:id.
func (h *ComplaintsHandler) GetComplaint(c *fiber.Ctx) error {
	complaint, err := h.coordinator.GetComplaint(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewComplaintResponse(complaint))
}

// UpdateStatus PUT /complaints/:id/status. Admins may change any complaint;
// workers only the ones assigned to them.
func (h *ComplaintsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	req := dto.StatusRequest{Status: c.Query("status")}
	if err := dto.Decode(c.Body(), &req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	if strings.TrimSpace(req.Status) == "" {
		return apperrors.NewValidationError("status is required", nil)
	}

	ctx := c.UserContext()
	id := c.Params("id")
	if !auth.IsAdmin(principal) {
		complaint, err := h.coordinator.GetComplaint(ctx, id)
		if err != nil {
			return err
		}
		if !principal.IsWorker() || !complaint.IsAssignedTo(principal.ID) {
			return apperrors.NewForbidden("only an admin or the assigned worker may change status")
		}
	}

	status := domain.ComplaintStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	complaint, err := h.coordinator.UpdateStatus(ctx, id, status)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewComplaintResponse(complaint))
}

// AssignWorker PUT /complaints/:id/assign.
func (h *ComplaintsHandler) AssignWorker(c *fiber.Ctx) error {
	req := dto.AssignRequest{WorkerID: c.Query("worker_id")}
	if err := dto.Decode(c.Body(), &req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	if strings.TrimSpace(req.WorkerID) == "" {
		return apperrors.NewValidationError("worker_id is required", nil)
	}

	complaint, err := h.coordinator.AssignWorker(c.UserContext(), c.Params("id"), req.WorkerID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewComplaintResponse(complaint))
}

// History GET /complaints/:id/history.
func (h *ComplaintsHandler) History(c *fiber.Ctx) error {
	entries, err := h.coordinator.ComplaintHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"history": dto.NewHistoryResponses(entries)})
}

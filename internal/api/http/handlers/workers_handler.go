package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/societyresolver/complaint-service/internal/api/dto"
	"github.com/societyresolver/complaint-service/internal/domain"
	"github.com/societyresolver/complaint-service/internal/service"
	apperrors "github.com/societyresolver/complaint-service/pkg/util/errorutil"
)

// WorkersHandler lists worker profiles.
type WorkersHandler struct {
	coordinator *service.Coordinator
}

// NewWorkersHandler constructs handler.
func NewWorkersHandler(coordinator *service.Coordinator) *WorkersHandler {
	return &WorkersHandler{coordinator: coordinator}
}

// ListWorkers GET /workers.
func (h *WorkersHandler) ListWorkers(c *fiber.Ctx) error {
	filter, err := parseWorkerQuery(c)
	if err != nil {
		return err
	}
	workers, err := h.coordinator.ListWorkers(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"workers": dto.NewUserResponses(workers)})
}

func parseWorkerQuery(c *fiber.Ctx) (domain.WorkerFilter, error) {
	var filter domain.WorkerFilter
	if wt := c.Query("worker_type"); wt != "" {
		filter.WorkerType = &wt
	}
	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, apperrors.NewValidationError("available must be a boolean", map[string]any{"available": raw})
		}
		filter.Available = &available
	}
	return filter, nil
}

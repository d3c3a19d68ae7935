package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/multierr"
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type namedPinger struct {
	name   string
	pinger Pinger
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	deps        []namedPinger
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version}
}

// WithDependency adds a dependency to the readiness probe.
func (h *HealthHandler) WithDependency(name string, p Pinger) *HealthHandler {
	h.deps = append(h.deps, namedPinger{name: name, pinger: p})
	return h
}

// Root handles GET /.
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "API up"})
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	var errs error
	for _, dep := range h.deps {
		if err := dep.pinger.Ping(ctx); err != nil {
			depStatus[dep.name] = err.Error()
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", dep.name, err))
			continue
		}
		depStatus[dep.name] = "ok"
	}

	if errs == nil {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": fmt.Sprintf("%d dependencies unavailable", len(multierr.Errors(errs))),
			"details": depStatus,
		},
	})
}

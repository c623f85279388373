package handlers

import (
	"github.com/MilindPius2005/library-management-system/internal/core/services"
	"github.com/MilindPius2005/library-management-system/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SweepHandler exposes a manual trigger for the overdue sweep
type SweepHandler struct {
	sweeper *services.OverdueSweeper
}

// NewSweepHandler creates a new sweep handler
func NewSweepHandler(sweeper *services.OverdueSweeper) *SweepHandler {
	return &SweepHandler{sweeper: sweeper}
}

// Run triggers one overdue sweep immediately
// @Summary Run overdue sweep
// @Description Transition lapsed loans to overdue and notify holders (Officer/Admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /admin/sweep [post]
func (h *SweepHandler) Run(c *fiber.Ctx) error {
	marked, err := h.sweeper.RunOnce(c.Context())
	if err != nil {
		return response.ServiceUnavailable(c, "Overdue sweep failed, will retry on schedule")
	}

	return response.Success(c, "Overdue sweep completed", fiber.Map{
		"marked_overdue": marked,
	})
}

package handlers

import (
	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/repositories"
	"github.com/MilindPius2005/library-management-system/internal/pkg/pagination"
	"github.com/MilindPius2005/library-management-system/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles notification endpoints
type NotificationHandler struct {
	notificationRepo repositories.NotificationRepository
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationRepo repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepo: notificationRepo}
}

// ListMine lists the user's notifications
// @Summary My notifications
// @Description List the current user's notifications, newest first
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /notifications [get]
func (h *NotificationHandler) ListMine(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	params := pagination.GetParams(c)

	notifications, total, err := h.notificationRepo.ListByUser(c.Context(), userID, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch notifications")
	}

	return response.Success(c, "Notifications retrieved successfully",
		pagination.NewResponse(notifications, params, total))
}

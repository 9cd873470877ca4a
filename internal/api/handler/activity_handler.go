package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/task-manager/internal/core/ports"
)

const activityPageSize = 100

// ActivityHandler exposes the recorded task activity trail to admins.
type ActivityHandler struct {
	reader ports.ActivityReader
}

func NewActivityHandler(reader ports.ActivityReader) *ActivityHandler {
	return &ActivityHandler{reader: reader}
}

// ListByTask handles GET /v1/admin/tasks/:id/activity.
//
// @Summary      Task activity trail
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  taskActivityResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/tasks/{id}/activity [get]
func (h *ActivityHandler) ListByTask(c echo.Context) error {
	taskID := c.Param("id")
	records, err := h.reader.ListByTask(c.Request().Context(), taskID, activityPageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskActivityResponse(taskID, records))
}

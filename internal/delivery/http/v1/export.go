package v1

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akovalyov/go-taskboard/internal/export"
	"github.com/akovalyov/go-taskboard/internal/services"
)

// HandleExportTasks streams the caller's full task list as a CSV
// attachment, rows in manual order.
func (h *handlerImpl) HandleExportTasks(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	tasks, err := h.tasks.ListTasks(c, userID, services.TaskFilter{
		Category: services.FilterAll,
		Status:   services.FilterAll,
		Sort:     services.SortByOrder,
	})
	if err != nil {
		abortTaskError(c, err)
		return
	}

	var buf bytes.Buffer
	err = export.WriteCSV(&buf, tasks)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to render csv")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="tasks.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

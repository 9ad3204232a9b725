package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type dashboardResponse struct {
	StatusCounts   map[string]int `json:"status_counts"`
	PriorityCounts map[string]int `json:"priority_counts"`
}

// HandleDashboard reports the caller's task counts grouped by status
// and by priority. Recomputed per request, nothing is persisted.
func (h *handlerImpl) HandleDashboard(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	stats, err := h.tasks.TaskStats(c, userID)
	if err != nil {
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboardResponse{
		StatusCounts:   stats.StatusCounts,
		PriorityCounts: stats.PriorityCounts,
	})
}

// Dashboard HTTP handlers.
//
// This file exposes the weekly dashboard endpoint:
//   - GET /dashboard/weekly  (aggregates, trends, and the stored narrative)
//
// The dashboard is read-mostly: live aggregates are recomputed per request,
// while the narrative is generated once per week and frozen thereafter.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/selfspeak/selfspeak-backend/internal/services"
)

// WeeklyDashboardResponse wraps the dashboard payload.
type WeeklyDashboardResponse struct {
	Success bool                     `json:"success"`
	Data    *services.WeeklyOverview `json:"data"`
}

// WeeklyDashboard returns the dashboard for the week containing week_start.
//
// GET /dashboard/weekly?week_start=YYYY-MM-DD. Any date inside the week works; a
// missing week_start targets the current week (UTC). A week with no
// analyzed entries returns a 200 empty state rather than 404.
func (h *Handlers) WeeklyDashboard(c *gin.Context) {
	date := strings.TrimSpace(c.Query("week_start"))
	if date == "" {
		date = h.today()
	}

	view, err := h.insightSvc.Weekly(c.Request.Context(), userID(c), date)
	switch {
	case err == nil:
		ok(c, http.StatusOK, WeeklyDashboardResponse{Success: true, Data: view})
	case errors.Is(err, services.ErrInvalidDate):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "week_start must be YYYY-MM-DD")
	case errors.Is(err, services.ErrAnalysisFailed):
		fail(c, http.StatusInternalServerError, ErrCodeAnalysisFailed, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

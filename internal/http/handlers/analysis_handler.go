// Analysis HTTP handlers.
//
// This file exposes the AI analysis endpoint:
//   - POST /journal/analyze  (analyze the entry for a calendar day)
//
// Analysis is idempotent per entry and quota-limited per week: a stored
// analysis is replayed without consuming quota, and an exhausted week
// returns 429 along with the usage snapshot so clients can render the
// remaining allowance and the reset date.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/selfspeak/selfspeak-backend/internal/domain"
	"github.com/selfspeak/selfspeak-backend/internal/services"
)

// AnalyzeResponse wraps a stored analysis and the week's usage snapshot.
type AnalyzeResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    *domain.DailyAnalysis `json:"data"`
	Usage   *services.Usage       `json:"usage,omitempty"`
}

// QuotaExceededResponse is the 429 envelope: the standard error fields plus
// the usage snapshot explaining when the quota resets.
type QuotaExceededResponse struct {
	ErrorResponse
	Usage *services.Usage `json:"usage,omitempty"`
}

// AnalyzeEntry runs (or replays) the AI analysis for a day's entry.
//
// POST /journal/analyze?entry_date=YYYY-MM-DD. A missing entry_date targets today
// (UTC). Error mapping: 400 on a malformed date, 404 entry_not_found when
// the day has no entry, 429 quota_exceeded with usage when the week is
// spent, 500 analysis_failed / persistence_error otherwise.
func (h *Handlers) AnalyzeEntry(c *gin.Context) {
	entryDate := strings.TrimSpace(c.Query("entry_date"))
	if entryDate == "" {
		entryDate = h.today()
	}

	analysis, usage, created, err := h.analysisSvc.Analyze(c.Request.Context(), userID(c), entryDate)
	switch {
	case err == nil:
		msg := "analysis already exists"
		if created {
			msg = "analysis complete"
		}
		ok(c, http.StatusOK, AnalyzeResponse{Success: true, Message: msg, Data: analysis, Usage: usage})
	case errors.Is(err, services.ErrInvalidDate):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry_date must be YYYY-MM-DD")
	case errors.Is(err, services.ErrEntryNotFound):
		fail(c, http.StatusNotFound, ErrCodeEntryNotFound, "no journal entry for that date")
	case errors.Is(err, services.ErrQuotaExceeded):
		resp := QuotaExceededResponse{
			ErrorResponse: ErrorResponse{
				RequestID: c.Writer.Header().Get("X-Request-ID"),
				Code:      ErrCodeQuotaExceeded,
				Message:   "weekly analysis limit reached",
			},
			Usage: usage,
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
	case errors.Is(err, services.ErrAnalysisFailed):
		fail(c, http.StatusInternalServerError, ErrCodeAnalysisFailed, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodePersistence, err.Error())
	}
}

// Journal HTTP handlers.
//
// This file exposes REST endpoints for journal entries:
//   - POST /journal/entries  (upsert the entry for a calendar day)
//   - GET  /journal/today    (combined entry + analysis + usage view)
//   - GET  /journal/entries  (history, paginated, ETag support)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/selfspeak/selfspeak-backend/internal/domain"
	"github.com/selfspeak/selfspeak-backend/internal/repo"
	"github.com/selfspeak/selfspeak-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// JournalService defines journal entry operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type JournalService interface {
	// Save creates or replaces the entry for (userID, entryDate).
	// The bool reports whether a new entry was created.
	Save(ctx context.Context, userID, entryDate, content string) (*domain.JournalEntry, bool, error)
	// Get returns the entry for (userID, entryDate).
	Get(ctx context.Context, userID, entryDate string) (*domain.JournalEntry, error)
	// History returns a page of the user's entries (newest first) and the total count.
	History(ctx context.Context, userID string, page, pageSize int) ([]domain.JournalEntry, int64, error)
}

// AnalysisService defines AI analysis operations consumed by HTTP handlers.
type AnalysisService interface {
	// Analyze produces (or replays) the analysis for an entry. The bool
	// reports whether a new analysis was generated by this call.
	Analyze(ctx context.Context, userID, entryDate string) (*domain.DailyAnalysis, *services.Usage, bool, error)
	// Overview assembles the read-only "today" view for a date.
	Overview(ctx context.Context, userID, date string) (*services.TodayOverview, error)
}

// InsightService defines weekly dashboard operations consumed by HTTP handlers.
type InsightService interface {
	// Weekly returns the dashboard payload for the week containing date.
	Weekly(ctx context.Context, userID, date string) (*services.WeeklyOverview, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for journal entries, analysis, and the
// weekly dashboard. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	journalSvc  JournalService
	analysisSvc AnalysisService
	insightSvc  InsightService

	// nowFn is overridable in tests; nil means time.Now.
	nowFn func() time.Time
}

// New constructs and returns a Handlers instance bound to the given services.
func New(journalSvc JournalService, analysisSvc AnalysisService, insightSvc InsightService) *Handlers {
	return &Handlers{journalSvc: journalSvc, analysisSvc: analysisSvc, insightSvc: insightSvc}
}

func (h *Handlers) today() string {
	now := time.Now
	if h.nowFn != nil {
		now = h.nowFn
	}
	return domain.FormatDate(now().UTC())
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// SaveEntryRequest is the JSON payload for saving a journal entry.
type SaveEntryRequest struct {
	// Content is the journal text for the day.
	Content string `json:"content" binding:"required"`
	// EntryDate optionally targets a calendar day (YYYY-MM-DD); today when empty.
	EntryDate string `json:"entry_date"`
}

// SaveEntryResponse wraps the stored entry.
type SaveEntryResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    *domain.JournalEntry `json:"data"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListEntriesResponse wraps a page of entries and pagination information.
type ListEntriesResponse struct {
	Entries    []domain.JournalEntry `json:"entries"`
	Pagination Pagination            `json:"pagination"`
}

//
// Helpers
//

// atoiDefault parses s as an int, returning def when empty or malformed.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = atoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = atoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// validationStatus maps journal validation errors to a 400 with the most
// specific message; unknown errors land on (500, persistence_error).
func validationStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, services.ErrInvalidDate):
		return http.StatusBadRequest, ErrCodeBadRequest, "entry_date must be YYYY-MM-DD"
	case errors.Is(err, services.ErrEmptyContent):
		return http.StatusBadRequest, ErrCodeBadRequest, "content must not be empty"
	case errors.Is(err, services.ErrContentTooLong):
		return http.StatusBadRequest, ErrCodeBadRequest, "content exceeds the maximum length"
	default:
		return http.StatusInternalServerError, ErrCodePersistence, err.Error()
	}
}

//
// Handlers
//

// SaveEntry creates or replaces the journal entry for a calendar day.
//
// POST /journal/entries with body {content, entry_date?}. A missing
// entry_date targets today (UTC). Returns 201 when a new entry was created
// and 200 when an existing day's text was replaced.
func (h *Handlers) SaveEntry(c *gin.Context) {
	var req SaveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	entryDate := strings.TrimSpace(req.EntryDate)
	if entryDate == "" {
		entryDate = h.today()
	}

	entry, created, err := h.journalSvc.Save(c.Request.Context(), userID(c), entryDate, req.Content)
	if err != nil {
		status, code, msg := validationStatus(err)
		if status == http.StatusInternalServerError {
			code = ErrCodeSaveFailed
		}
		fail(c, status, code, msg)
		return
	}

	status := http.StatusOK
	msg := "journal entry updated"
	if created {
		status = http.StatusCreated
		msg = "journal entry saved"
	}
	ok(c, status, SaveEntryResponse{Success: true, Message: msg, Data: entry})
}

// Today returns the combined view for the current day: the entry (if any),
// its analysis (if any), and the week's usage. Purely read-only.
//
// GET /journal/today
func (h *Handlers) Today(c *gin.Context) {
	view, err := h.analysisSvc.Overview(c.Request.Context(), userID(c), h.today())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, view)
}

// ListEntries returns a page of the user's journal history, newest first.
// Supports weak ETag via If-None-Match and may return 304.
//
// GET /journal/entries?page=&page_size=
func (h *Handlers) ListEntries(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.journalSvc.(*services.JournalService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.EntriesStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"entries:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	// Fetch page.
	items, total, err := h.journalSvc.History(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListEntriesResponse{
		Entries: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

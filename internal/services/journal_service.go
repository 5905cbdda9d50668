// Package services – JournalService
//
// This file implements JournalService, the application-level component that
// owns journal entry writes and reads. It validates dates and content,
// enforces the one-entry-per-day rule through the repo upsert, and serves
// the paginated history listing.
//
// Observability: public methods are OpenTelemetry-instrumented; spans
// include user identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/selfspeak/selfspeak-backend/internal/domain"
	"github.com/selfspeak/selfspeak-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// JournalService coordinates journal entry persistence.
type JournalService struct {
	DB *gorm.DB

	// MaxContentRunes bounds accepted journal text; 0 disables the check.
	MaxContentRunes int
}

// Save validates and writes the journal text for (userID, entryDate).
// Writing the same day twice replaces the content in place. The boolean
// result reports whether a new row was created.
func (s *JournalService) Save(ctx context.Context, userID, entryDate, content string) (*domain.JournalEntry, bool, error) {
	tr := otel.Tracer("services/JournalService")
	ctx, span := tr.Start(ctx, "Save",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("entry.date", entryDate),
		),
	)
	defer span.End()

	if _, err := domain.ParseDate(entryDate); err != nil {
		return nil, false, ErrInvalidDate
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, false, ErrEmptyContent
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, false, ErrContentTooLong
	}

	return repo.UpsertEntry(ctx, s.DB, userID, entryDate, content)
}

// Get returns the entry for (userID, entryDate), or ErrEntryNotFound.
func (s *JournalService) Get(ctx context.Context, userID, entryDate string) (*domain.JournalEntry, error) {
	if _, err := domain.ParseDate(entryDate); err != nil {
		return nil, ErrInvalidDate
	}
	e, err := repo.GetEntry(ctx, s.DB, userID, entryDate)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	return e, err
}

// History returns one page of the user's entries, newest first, plus the
// total row count for pagination metadata.
func (s *JournalService) History(ctx context.Context, userID string, page, pageSize int) ([]domain.JournalEntry, int64, error) {
	tr := otel.Tracer("services/JournalService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	total, err := repo.CountEntries(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListEntriesPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

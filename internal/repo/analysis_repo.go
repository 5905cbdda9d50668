// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// DailyAnalysis model. Analyses are insert-only: the unique index on
// journal_entry_id turns a second insert into ErrDuplicate, which lets
// concurrent analyzers converge on a single stored row.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfspeak/selfspeak-backend/internal/domain"
)

// CreateAnalysis inserts the analysis row for a journal entry. The ID and
// creation timestamp are assigned here. Returns ErrDuplicate if the entry
// already has an analysis.
func CreateAnalysis(ctx context.Context, db *gorm.DB, a *domain.DailyAnalysis) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		if duplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetAnalysisByEntry fetches the analysis for a journal entry, or ErrNotFound.
func GetAnalysisByEntry(ctx context.Context, db *gorm.DB, entryID string) (*domain.DailyAnalysis, error) {
	var a domain.DailyAnalysis
	err := db.WithContext(ctx).
		Where("journal_entry_id = ?", entryID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// WeekAnalysisRow is an analysis joined with the calendar day of its entry,
// which only the journal_entries table knows.
type WeekAnalysisRow struct {
	domain.DailyAnalysis
	EntryDate string
}

// ListWeekAnalyses returns the user's analyses whose entry dates fall inside
// [weekStart, weekEnd], ordered by entry date ascending. Chronological order
// matters: the weekly trend computation splits this slice at its midpoint.
func ListWeekAnalyses(ctx context.Context, db *gorm.DB, userID, weekStart, weekEnd string) ([]WeekAnalysisRow, error) {
	var rows []WeekAnalysisRow
	err := db.WithContext(ctx).
		Model(&domain.DailyAnalysis{}).
		Select("ai_analyses.*, journal_entries.entry_date AS entry_date").
		Joins("JOIN journal_entries ON journal_entries.id = ai_analyses.journal_entry_id").
		Where("ai_analyses.user_id = ? AND journal_entries.entry_date BETWEEN ? AND ?", userID, weekStart, weekEnd).
		Order("journal_entries.entry_date ASC").
		Scan(&rows).Error
	return rows, err
}

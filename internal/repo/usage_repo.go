// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the weekly
// usage ledger. The ledger is the authoritative quota gate: the count only
// moves through a conditional UPDATE that carries the limit in its WHERE
// clause, so no interleaving of concurrent callers can push it past the cap.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfspeak/selfspeak-backend/internal/domain"
)

// GetUsage returns the analysis count for (userID, weekStart). A missing
// ledger row reads as zero; no row is created.
func GetUsage(ctx context.Context, db *gorm.DB, userID, weekStart string) (int, error) {
	var rec domain.UsageLedger
	err := db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.AnalysisCount, nil
}

// CheckAndIncrementUsage consumes one unit of the weekly analysis quota, if
// any remains. It returns the count after the call and whether the unit was
// granted. A denied call leaves the ledger untouched.
//
// The grant path is a single conditional UPDATE (analysis_count < limit in
// the WHERE clause); when no ledger row exists yet, an insert with count 1
// claims the week, and an insert race falls back to the conditional UPDATE.
// Call this inside the same transaction that persists the analysis so a
// failed insert rolls the consumed unit back.
func CheckAndIncrementUsage(ctx context.Context, db *gorm.DB, userID, weekStart string, limit int) (count int, allowed bool, err error) {
	if limit <= 0 {
		return 0, false, nil
	}

	increment := func() (int64, error) {
		res := db.WithContext(ctx).
			Model(&domain.UsageLedger{}).
			Where("user_id = ? AND week_start = ? AND analysis_count < ?", userID, weekStart, limit).
			Update("analysis_count", gorm.Expr("analysis_count + ?", 1))
		return res.RowsAffected, res.Error
	}

	rows, err := increment()
	if err != nil {
		return 0, false, err
	}
	if rows == 0 {
		// Either no ledger row yet, or the quota is spent.
		rec := &domain.UsageLedger{
			ID:            uuid.NewString(),
			UserID:        userID,
			WeekStart:     weekStart,
			AnalysisCount: 1,
			CreatedAt:     time.Now().UTC(),
		}
		switch err := db.WithContext(ctx).Create(rec).Error; {
		case err == nil:
			return 1, true, nil
		case duplicateKey(err):
			// Row appeared concurrently; retry the guarded update once.
			rows, err = increment()
			if err != nil {
				return 0, false, err
			}
		default:
			return 0, false, err
		}
	}

	current, err := GetUsage(ctx, db, userID, weekStart)
	if err != nil {
		return 0, false, err
	}
	return current, rows > 0, nil
}

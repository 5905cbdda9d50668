// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// JournalEntry model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an entry is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfspeak/selfspeak-backend/internal/domain"
)

// UpsertEntry writes the journal entry for (userID, entryDate). If a row for
// that day already exists its content is replaced in place; otherwise a new
// row is inserted. The boolean result reports whether a row was created.
//
// The uniqueness index on (user_id, entry_date) closes the insert race: when
// two writers miss the update and both insert, the loser retries the update
// against the winner's row.
func UpsertEntry(ctx context.Context, db *gorm.DB, userID, entryDate, content string) (*domain.JournalEntry, bool, error) {
	update := func() (int64, error) {
		res := db.WithContext(ctx).
			Model(&domain.JournalEntry{}).
			Where("user_id = ? AND entry_date = ?", userID, entryDate).
			Update("content", content)
		return res.RowsAffected, res.Error
	}

	rows, err := update()
	if err != nil {
		return nil, false, err
	}
	created := false
	if rows == 0 {
		e := &domain.JournalEntry{
			ID:        uuid.NewString(),
			UserID:    userID,
			EntryDate: entryDate,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		}
		switch err := db.WithContext(ctx).Create(e).Error; {
		case err == nil:
			created = true
		case duplicateKey(err):
			// Lost the insert race; the row exists now, update it.
			if _, err := update(); err != nil {
				return nil, false, err
			}
		default:
			return nil, false, err
		}
	}

	out, err := GetEntry(ctx, db, userID, entryDate)
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

// GetEntry fetches the entry for (userID, entryDate), or ErrNotFound.
func GetEntry(ctx context.Context, db *gorm.DB, userID, entryDate string) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := db.WithContext(ctx).
		Where("user_id = ? AND entry_date = ?", userID, entryDate).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEntryByID fetches an entry by primary key, enforcing ownership.
func GetEntryByID(ctx context.Context, db *gorm.DB, id, userID string) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CountEntries returns the total number of journal entries owned by userID.
func CountEntries(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.JournalEntry{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListEntriesPage returns a paginated slice of entries for userID, newest
// entry date first. Use CountEntries to obtain the total for pagination
// metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListEntriesPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("entry_date desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

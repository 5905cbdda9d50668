// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// WeeklyInsight model. Insights are write-once per (user, week): the unique
// index rejects a second insert with ErrDuplicate so the first stored
// narrative is the one every reader sees.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfspeak/selfspeak-backend/internal/domain"
)

// CreateInsight inserts the weekly insight row, assigning the ID and
// creation timestamp. Returns ErrDuplicate if the week already has one.
func CreateInsight(ctx context.Context, db *gorm.DB, ins *domain.WeeklyInsight) error {
	if ins.ID == "" {
		ins.ID = uuid.NewString()
	}
	if ins.CreatedAt.IsZero() {
		ins.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(ins).Error; err != nil {
		if duplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetInsight fetches the stored insight for (userID, weekStart), or ErrNotFound.
func GetInsight(ctx context.Context, db *gorm.DB, userID, weekStart string) (*domain.WeeklyInsight, error) {
	var ins domain.WeeklyInsight
	err := db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&ins).Error
	if err != nil {
		return nil, err
	}
	return &ins, nil
}

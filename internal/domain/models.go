// Package domain defines the persistence models for journal entries, their
// AI analyses, the weekly usage ledger, and weekly insights. These types are
// mapped with GORM and form the core data layer of the journaling backend.
//
// Dates that act as business keys (entry dates, week starts) are stored as
// ISO "YYYY-MM-DD" strings rather than timestamps: the format sorts lexically
// in date order, survives driver round-trips unchanged, and sidesteps
// timezone drift between SQLite and Postgres.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Trend labels describe the direction of a score across a week. The weekly
// insight stores one label per score dimension.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// StringList is a []string persisted as a JSON array in a TEXT column.
// Both SQLite and Postgres store it without needing a native array type.
type StringList []string

// Value implements driver.Valuer. A nil list is stored as the empty array
// so reads never have to distinguish NULL from "no tags".
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner and accepts TEXT or BLOB column data.
func (s *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(s))
	case []byte:
		return json.Unmarshal(v, (*[]string)(s))
	default:
		return fmt.Errorf("domain: cannot scan %T into StringList", src)
	}
}

// JournalEntry is one user-authored journal text for one calendar day.
// At most one entry exists per (user, day); writing again the same day
// replaces the content in place rather than creating a sibling row.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the author; part of the per-day uniqueness key.
//   - EntryDate: "YYYY-MM-DD" calendar day the entry belongs to.
//   - Content: full journal text.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type JournalEntry struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_entries_user_date,priority:1"`
	EntryDate string    `json:"entry_date" gorm:"type:char(10);not null;uniqueIndex:ux_entries_user_date,priority:2;index:idx_entries_date"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for JournalEntry.
func (JournalEntry) TableName() string { return "journal_entries" }

// DailyAnalysis is the immutable AI reading of a single journal entry.
// An entry is analyzed at most once; the unique index on JournalEntryID
// makes a second insert a constraint violation, which the repo layer maps
// to ErrDuplicate so concurrent analyzers converge on one stored row.
//
// Score fields hold integers on a 0-100 scale. AlignmentScore is derived:
// the mean of the four positive scores and the inverted resistance score.
type DailyAnalysis struct {
	ID             string `json:"id"               gorm:"type:char(36);primaryKey"`
	JournalEntryID string `json:"journal_entry_id" gorm:"type:char(36);not null;uniqueIndex:ux_analyses_entry"`
	UserID         string `json:"user_id"          gorm:"type:varchar(64);not null;index:idx_analyses_user"`

	ConfidenceScore int `json:"confidence_score" gorm:"not null"`
	AbundanceScore  int `json:"abundance_score"  gorm:"not null"`
	ClarityScore    int `json:"clarity_score"    gorm:"not null"`
	GratitudeScore  int `json:"gratitude_score"  gorm:"not null"`
	ResistanceScore int `json:"resistance_score" gorm:"not null"`
	AlignmentScore  int `json:"alignment_score"  gorm:"not null"`

	DominantEmotion  string     `json:"dominant_emotion"  gorm:"type:varchar(32);not null"`
	OverallTone      string     `json:"overall_tone"      gorm:"type:varchar(16);not null"`
	TimeHorizon      string     `json:"time_horizon"      gorm:"type:varchar(16);not null"`
	GoalPresent      bool       `json:"goal_present"      gorm:"not null"`
	SelfDoubtPresent bool       `json:"self_doubt_present" gorm:"not null"`
	BehavioralTags   StringList `json:"behavioral_tags"   gorm:"type:text;not null"`

	CreatedAt time.Time `json:"created_at"`

	// Entry is the analyzed journal entry. Analyses are cascade-deleted
	// if the underlying entry is removed.
	Entry JournalEntry `json:"-" gorm:"foreignKey:JournalEntryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for DailyAnalysis.
func (DailyAnalysis) TableName() string { return "ai_analyses" }

// UsageLedger counts successful analyses per user per ISO week. One row per
// (user, week start); AnalysisCount is only ever moved by a conditional
// UPDATE guarded by the weekly limit, so the count can never pass it.
type UsageLedger struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string    `json:"user_id"        gorm:"type:varchar(64);not null;uniqueIndex:ux_usage_user_week,priority:1"`
	WeekStart     string    `json:"week_start"     gorm:"type:char(10);not null;uniqueIndex:ux_usage_user_week,priority:2"`
	AnalysisCount int       `json:"analysis_count" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for UsageLedger.
func (UsageLedger) TableName() string { return "ai_usage" }

// WeeklyInsight is the write-once narrative for one user week: a summary,
// a reflection question, the dominant emotion, and a per-score trend label.
// Once stored it is never regenerated, even as later entries shift the
// week's averages; the unique index on (user, week) enforces that.
type WeeklyInsight struct {
	ID     string `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID string `json:"user_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_insights_user_week,priority:1"`

	WeekStart string `json:"week_start" gorm:"type:char(10);not null;uniqueIndex:ux_insights_user_week,priority:2"`

	SummaryText         string `json:"summary_text"          gorm:"type:text;not null"`
	ReflectionQuestion  string `json:"reflection_question"   gorm:"type:text;not null"`
	DominantWeekEmotion string `json:"dominant_week_emotion" gorm:"type:varchar(32);not null"`

	ConfidenceTrend string `json:"confidence_trend" gorm:"type:varchar(8);not null"`
	AbundanceTrend  string `json:"abundance_trend"  gorm:"type:varchar(8);not null"`
	ClarityTrend    string `json:"clarity_trend"    gorm:"type:varchar(8);not null"`
	GratitudeTrend  string `json:"gratitude_trend"  gorm:"type:varchar(8);not null"`
	ResistanceTrend string `json:"resistance_trend" gorm:"type:varchar(8);not null"`

	EntryCount int       `json:"entry_count" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for WeeklyInsight.
func (WeeklyInsight) TableName() string { return "weekly_insights" }

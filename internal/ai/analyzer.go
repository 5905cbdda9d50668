// Package ai defines the analysis engine boundary for the journaling
// backend. The service layer talks to the Analyzer interface only; the
// concrete engine behind it (a hosted model, or the deterministic stub in
// this package) is wired at startup.
//
// Two privacy tiers are deliberate: daily analysis receives raw journal
// text, weekly insight generation receives only pre-aggregated numbers and
// labels. Raw text never crosses the weekly boundary.
package ai

import "context"

// MinWeeklyEntries is the minimum number of analyzed entries a week needs
// before a real narrative is generated. Below it the engine returns a
// standing "keep journaling" placeholder.
const MinWeeklyEntries = 3

// AllowedTones are the valid overall_tone values.
var AllowedTones = []string{"calm", "anxious", "driven", "scattered"}

// AllowedTimeHorizons are the valid time_horizon values.
var AllowedTimeHorizons = []string{"short", "long", "vague"}

// AllowedBehavioralTags is the controlled taxonomy for behavioral tags.
// Every daily result carries between one and four of these.
var AllowedBehavioralTags = []string{
	"future_focused",
	"past_reflecting",
	"present_anchored",
	"socially_engaged",
	"internally_focused",
	"action_oriented",
	"contemplative",
	"emotionally_processing",
	"problem_solving",
	"gratitude_expressing",
	"identity_exploring",
	"relationship_focused",
	"achievement_oriented",
	"rest_seeking",
	"growth_mindset",
	"fixed_perspective",
	"optimistic_leaning",
	"pessimistic_leaning",
	"self_compassionate",
	"self_critical",
}

// DailyResult is the structured reading of one journal entry. All scores
// are on a 0-100 scale; AlignmentScore is derived, never engine-supplied.
type DailyResult struct {
	ConfidenceScore int
	AbundanceScore  int
	ClarityScore    int
	GratitudeScore  int
	ResistanceScore int
	AlignmentScore  int

	DominantEmotion  string
	OverallTone      string
	TimeHorizon      string
	GoalPresent      bool
	SelfDoubtPresent bool
	BehavioralTags   []string
}

// ScoreAverages holds the per-dimension mean over a week's analyses.
type ScoreAverages struct {
	Confidence float64 `json:"confidence"`
	Abundance  float64 `json:"abundance"`
	Clarity    float64 `json:"clarity"`
	Gratitude  float64 `json:"gratitude"`
	Resistance float64 `json:"resistance"`
}

// TrendSet holds one trend label ("up", "down", "stable") per dimension.
type TrendSet struct {
	Confidence string `json:"confidence"`
	Abundance  string `json:"abundance"`
	Clarity    string `json:"clarity"`
	Gratitude  string `json:"gratitude"`
	Resistance string `json:"resistance"`
}

// WeeklyAggregates is everything the weekly engine is allowed to see:
// counts, averages, trends, and label frequencies. No journal text.
type WeeklyAggregates struct {
	EntryCount       int
	Averages         ScoreAverages
	Trends           TrendSet
	DominantEmotion  string
	GoalPresenceRate float64
	SelfDoubtRate    float64
	TopTags          []string
}

// WeeklyResult is the generated weekly narrative.
type WeeklyResult struct {
	SummaryText         string
	ReflectionQuestion  string
	DominantWeekEmotion string
}

// Analyzer is the engine the services depend on.
type Analyzer interface {
	// AnalyzeDailyJournal reads one raw journal text and returns its
	// structured analysis.
	AnalyzeDailyJournal(ctx context.Context, content string) (*DailyResult, error)

	// GenerateWeeklyInsight turns a week's aggregates into a narrative.
	// Implementations must honor MinWeeklyEntries by returning a
	// placeholder result when the week is too thin.
	GenerateWeeklyInsight(ctx context.Context, agg WeeklyAggregates) (*WeeklyResult, error)
}

// ClampScore forces v onto the 0-100 scale.
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// AlignmentScore derives the composite alignment value: the rounded mean of
// the four positive dimensions and the inverted resistance score.
func AlignmentScore(confidence, abundance, clarity, gratitude, resistance int) int {
	sum := ClampScore(confidence) + ClampScore(abundance) + ClampScore(clarity) +
		ClampScore(gratitude) + (100 - ClampScore(resistance))
	return (sum*2 + 5) / 10 // round(sum / 5)
}

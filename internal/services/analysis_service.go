// Package services – AnalysisService
//
// This file implements AnalysisService, which turns a journal entry into its
// stored daily analysis while enforcing the weekly quota. The quota unit and
// the analysis row are committed in one transaction: the conditional ledger
// increment and the insert either land together or roll back together, so a
// failed persist never burns quota and concurrent callers cannot overdraw it.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/selfspeak/selfspeak-backend/internal/ai"
	"github.com/selfspeak/selfspeak-backend/internal/domain"
	"github.com/selfspeak/selfspeak-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Usage reports a user's position against the weekly analysis quota.
type Usage struct {
	Count     int    `json:"count"`
	Limit     int    `json:"limit"`
	WeekStart string `json:"week_start"`
	ResetsOn  string `json:"resets_on"`
}

// TodayOverview bundles everything the "today" screen needs in one call.
type TodayOverview struct {
	Entry    *domain.JournalEntry  `json:"journal_entry"`
	Analysis *domain.DailyAnalysis `json:"analysis"`
	Usage    Usage                 `json:"usage"`
}

// AnalysisService runs the analysis engine against journal entries and
// guards it with the weekly usage ledger.
type AnalysisService struct {
	DB     *gorm.DB
	Engine ai.Analyzer

	// WeeklyLimit is the number of analyses granted per user per week.
	WeeklyLimit int

	// Now is the clock; nil means time.Now. Tests pin it to control which
	// ledger week a call lands in.
	Now func() time.Time
}

func (s *AnalysisService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Analyze produces and stores the analysis for (userID, entryDate).
//
// An entry that already has an analysis returns the stored row without
// consuming quota; analysis is idempotent per entry. Otherwise the call
// consumes one unit of the current week's quota, runs the engine, and
// persists the result; ErrQuotaExceeded is returned when nothing remains.
// The bool reports whether a new analysis was generated by this call.
func (s *AnalysisService) Analyze(ctx context.Context, userID, entryDate string) (*domain.DailyAnalysis, *Usage, bool, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "Analyze",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("entry.date", entryDate),
		),
	)
	defer span.End()

	if _, err := domain.ParseDate(entryDate); err != nil {
		return nil, nil, false, ErrInvalidDate
	}
	weekStart := domain.WeekStartOf(s.now().UTC())

	entry, err := repo.GetEntry(ctx, s.DB, userID, entryDate)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil, false, ErrEntryNotFound
	}
	if err != nil {
		return nil, nil, false, err
	}

	// Idempotent replay: an analyzed entry short-circuits before any quota
	// or engine work.
	if existing, err := repo.GetAnalysisByEntry(ctx, s.DB, entry.ID); err == nil {
		usage, uerr := s.readUsage(ctx, userID, weekStart)
		if uerr != nil {
			return nil, nil, false, uerr
		}
		return existing, usage, false, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, nil, false, err
	}

	// Advisory precheck so a spent quota fails before the engine runs.
	// The transaction below re-checks authoritatively.
	if count, err := repo.GetUsage(ctx, s.DB, userID, weekStart); err != nil {
		return nil, nil, false, err
	} else if count >= s.WeeklyLimit {
		quotaRejections.Inc()
		return nil, s.usage(count, weekStart), false, ErrQuotaExceeded
	}

	result, err := s.Engine.AnalyzeDailyJournal(ctx, entry.Content)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	analysis := &domain.DailyAnalysis{
		JournalEntryID:   entry.ID,
		UserID:           userID,
		ConfidenceScore:  result.ConfidenceScore,
		AbundanceScore:   result.AbundanceScore,
		ClarityScore:     result.ClarityScore,
		GratitudeScore:   result.GratitudeScore,
		ResistanceScore:  result.ResistanceScore,
		AlignmentScore:   result.AlignmentScore,
		DominantEmotion:  result.DominantEmotion,
		OverallTone:      result.OverallTone,
		TimeHorizon:      result.TimeHorizon,
		GoalPresent:      result.GoalPresent,
		SelfDoubtPresent: result.SelfDoubtPresent,
		BehavioralTags:   domain.StringList(result.BehavioralTags),
	}

	var count int
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, allowed, err := repo.CheckAndIncrementUsage(ctx, tx, userID, weekStart, s.WeeklyLimit)
		if err != nil {
			return err
		}
		count = n
		if !allowed {
			return ErrQuotaExceeded
		}
		// A duplicate here means a concurrent call stored its analysis
		// between our existence check and now. Abort so the consumed
		// unit rolls back, then serve the winner's row.
		return repo.CreateAnalysis(ctx, tx, analysis)
	})

	switch {
	case txErr == nil:
		analysesGenerated.Inc()
		return analysis, s.usage(count, weekStart), true, nil
	case errors.Is(txErr, ErrQuotaExceeded):
		quotaRejections.Inc()
		return nil, s.usage(count, weekStart), false, ErrQuotaExceeded
	case errors.Is(txErr, repo.ErrDuplicate):
		existing, err := repo.GetAnalysisByEntry(ctx, s.DB, entry.ID)
		if err != nil {
			return nil, nil, false, txErr
		}
		usage, uerr := s.readUsage(ctx, userID, weekStart)
		if uerr != nil {
			return nil, nil, false, uerr
		}
		return existing, usage, false, nil
	default:
		return nil, nil, false, txErr
	}
}

// Overview assembles the "today" view: the entry for date (if any), its
// analysis (if any), and the current week's usage. Purely read-only.
func (s *AnalysisService) Overview(ctx context.Context, userID, date string) (*TodayOverview, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "Overview",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if _, err := domain.ParseDate(date); err != nil {
		return nil, ErrInvalidDate
	}
	weekStart := domain.WeekStartOf(s.now().UTC())

	out := &TodayOverview{}
	entry, err := repo.GetEntry(ctx, s.DB, userID, date)
	switch {
	case err == nil:
		out.Entry = entry
		analysis, err := repo.GetAnalysisByEntry(ctx, s.DB, entry.ID)
		if err == nil {
			out.Analysis = analysis
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}

	usage, err := s.readUsage(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	out.Usage = *usage
	return out, nil
}

// CurrentUsage reports the quota position for the week containing now.
func (s *AnalysisService) CurrentUsage(ctx context.Context, userID string) (*Usage, error) {
	return s.readUsage(ctx, userID, domain.WeekStartOf(s.now().UTC()))
}

func (s *AnalysisService) readUsage(ctx context.Context, userID, weekStart string) (*Usage, error) {
	count, err := repo.GetUsage(ctx, s.DB, userID, weekStart)
	if err != nil {
		return nil, err
	}
	return s.usage(count, weekStart), nil
}

func (s *AnalysisService) usage(count int, weekStart string) *Usage {
	resetsOn, _ := domain.NextWeekStart(weekStart)
	return &Usage{
		Count:     count,
		Limit:     s.WeeklyLimit,
		WeekStart: weekStart,
		ResetsOn:  resetsOn,
	}
}

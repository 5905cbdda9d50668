// Package services – InsightService
//
// This file implements InsightService, which serves the weekly dashboard.
// Numeric aggregates (averages, trends, daily score series) are recomputed
// from stored analyses on every read, so they always reflect the current
// data. The narrative is different: the first request for a week generates
// it once and stores it, and later requests serve that frozen text even as
// new entries shift the numbers around it. This holds for the thin-week
// placeholder too; a week's narrative never changes once written.
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/selfspeak/selfspeak-backend/internal/ai"
	"github.com/selfspeak/selfspeak-backend/internal/domain"
	"github.com/selfspeak/selfspeak-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DailyScorePoint is one day's scores in the dashboard time series.
type DailyScorePoint struct {
	EntryDate  string `json:"entry_date"`
	Confidence int    `json:"confidence"`
	Abundance  int    `json:"abundance"`
	Clarity    int    `json:"clarity"`
	Gratitude  int    `json:"gratitude"`
	Resistance int    `json:"resistance"`
	Alignment  int    `json:"alignment"`
}

// WeeklyOverview is the full dashboard payload for one week. A week with no
// analyzed entries has EntryCount 0 and nil aggregate fields.
type WeeklyOverview struct {
	Insight     *domain.WeeklyInsight `json:"weekly_insight"`
	Averages    *ai.ScoreAverages     `json:"weekly_averages"`
	Trends      *ai.TrendSet          `json:"trend_data"`
	DailyScores []DailyScorePoint     `json:"daily_scores"`
	EntryCount  int                   `json:"entry_count"`
}

// InsightService aggregates a week of analyses and manages the write-once
// weekly narrative.
type InsightService struct {
	DB     *gorm.DB
	Engine ai.Analyzer

	// TrendThreshold is the points of average movement between the early
	// and late half of the week below which a dimension reads as stable.
	TrendThreshold float64
}

var emotionCaser = cases.Title(language.English)

// Weekly builds the dashboard for the week containing date. Any date inside
// the week is accepted; it is normalized to the week's Monday.
//
// If the week has no stored narrative yet, one is generated and persisted
// here, the below-minimum placeholder included. The stored text is frozen:
// entries added later move the numbers but never rewrite the narrative.
func (s *InsightService) Weekly(ctx context.Context, userID, date string) (*WeeklyOverview, error) {
	tr := otel.Tracer("services/InsightService")
	ctx, span := tr.Start(ctx, "Weekly",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("week.date", date),
		),
	)
	defer span.End()

	weekStart, err := domain.WeekStartOfDate(date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	weekEnd, err := domain.WeekEnd(weekStart)
	if err != nil {
		return nil, ErrInvalidDate
	}

	rows, err := repo.ListWeekAnalyses(ctx, s.DB, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &WeeklyOverview{}, nil
	}

	agg := s.aggregate(rows)
	overview := &WeeklyOverview{
		Averages:    &agg.Averages,
		Trends:      &agg.Trends,
		DailyScores: scoreSeries(rows),
		EntryCount:  agg.EntryCount,
	}

	insight, err := s.narrative(ctx, userID, weekStart, agg)
	if err != nil {
		return nil, err
	}
	overview.Insight = insight
	return overview, nil
}

// narrative returns the stored weekly insight, generating and persisting it
// first when the week qualifies. Losing a concurrent insert race falls back
// to the winner's row, so all callers converge on one narrative.
func (s *InsightService) narrative(ctx context.Context, userID, weekStart string, agg ai.WeeklyAggregates) (*domain.WeeklyInsight, error) {
	stored, err := repo.GetInsight(ctx, s.DB, userID, weekStart)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	gen, err := s.Engine.GenerateWeeklyInsight(ctx, agg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	insight := &domain.WeeklyInsight{
		UserID:              userID,
		WeekStart:           weekStart,
		SummaryText:         gen.SummaryText,
		ReflectionQuestion:  gen.ReflectionQuestion,
		DominantWeekEmotion: emotionCaser.String(gen.DominantWeekEmotion),
		ConfidenceTrend:     agg.Trends.Confidence,
		AbundanceTrend:      agg.Trends.Abundance,
		ClarityTrend:        agg.Trends.Clarity,
		GratitudeTrend:      agg.Trends.Gratitude,
		ResistanceTrend:     agg.Trends.Resistance,
		EntryCount:          agg.EntryCount,
	}

	switch err := repo.CreateInsight(ctx, s.DB, insight); {
	case err == nil:
		insightsGenerated.Inc()
		return insight, nil
	case errors.Is(err, repo.ErrDuplicate):
		return repo.GetInsight(ctx, s.DB, userID, weekStart)
	default:
		return nil, err
	}
}

// aggregate computes the weekly numbers the engine and dashboard consume.
// rows must be in entry-date order; trend detection splits them at the
// midpoint into an early and a late half.
func (s *InsightService) aggregate(rows []repo.WeekAnalysisRow) ai.WeeklyAggregates {
	n := len(rows)
	agg := ai.WeeklyAggregates{EntryCount: n}

	var conf, abund, clar, grat, resist []float64
	emotionCount := map[string]int{}
	emotionFirst := map[string]int{}
	tagCount := map[string]int{}
	goals, doubts := 0, 0

	for i, r := range rows {
		conf = append(conf, float64(r.ConfidenceScore))
		abund = append(abund, float64(r.AbundanceScore))
		clar = append(clar, float64(r.ClarityScore))
		grat = append(grat, float64(r.GratitudeScore))
		resist = append(resist, float64(r.ResistanceScore))

		if e := r.DominantEmotion; e != "" {
			emotionCount[e]++
			if _, seen := emotionFirst[e]; !seen {
				emotionFirst[e] = i
			}
		}
		for _, tag := range r.BehavioralTags {
			tagCount[tag]++
		}
		if r.GoalPresent {
			goals++
		}
		if r.SelfDoubtPresent {
			doubts++
		}
	}

	agg.Averages = ai.ScoreAverages{
		Confidence: round1(mean(conf)),
		Abundance:  round1(mean(abund)),
		Clarity:    round1(mean(clar)),
		Gratitude:  round1(mean(grat)),
		Resistance: round1(mean(resist)),
	}
	agg.Trends = ai.TrendSet{
		Confidence: s.classify(conf),
		Abundance:  s.classify(abund),
		Clarity:    s.classify(clar),
		Gratitude:  s.classify(grat),
		Resistance: s.classify(resist),
	}
	agg.DominantEmotion = dominant(emotionCount, emotionFirst)
	agg.GoalPresenceRate = round1(float64(goals) / float64(n))
	agg.SelfDoubtRate = round1(float64(doubts) / float64(n))
	agg.TopTags = topTags(tagCount, 3)
	return agg
}

// classify labels one score dimension by comparing the average of the late
// half of the week against the early half. Fewer than three points is too
// little signal and always reads as stable.
func (s *InsightService) classify(series []float64) string {
	if len(series) < 3 {
		return domain.TrendStable
	}
	mid := len(series) / 2
	diff := mean(series[mid:]) - mean(series[:mid])
	switch {
	case diff > s.TrendThreshold:
		return domain.TrendUp
	case diff < -s.TrendThreshold:
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

// dominant picks the most frequent emotion; ties go to the one that
// appeared first in the week.
func dominant(count, first map[string]int) string {
	best := ""
	for e := range count {
		if best == "" {
			best = e
			continue
		}
		if count[e] > count[best] || (count[e] == count[best] && first[e] < first[best]) {
			best = e
		}
	}
	if best == "" {
		return "Reflective"
	}
	return best
}

// topTags returns up to limit tags ordered by frequency, then name for a
// deterministic order.
func topTags(count map[string]int, limit int) []string {
	tags := make([]string, 0, len(count))
	for t := range count {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if count[tags[i]] != count[tags[j]] {
			return count[tags[i]] > count[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

func scoreSeries(rows []repo.WeekAnalysisRow) []DailyScorePoint {
	out := make([]DailyScorePoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, DailyScorePoint{
			EntryDate:  r.EntryDate,
			Confidence: r.ConfidenceScore,
			Abundance:  r.AbundanceScore,
			Clarity:    r.ClarityScore,
			Gratitude:  r.GratitudeScore,
			Resistance: r.ResistanceScore,
			Alignment:  r.AlignmentScore,
		})
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }

package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/selfspeak/selfspeak-backend/internal/ai"
	"github.com/selfspeak/selfspeak-backend/internal/domain"
	"github.com/selfspeak/selfspeak-backend/internal/repo"
)

// newSvcDB opens an in-memory DB and migrates the given models. Passing a
// subset is how tests induce targeted persistence failures.
func newSvcDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func allModels() []any {
	return []any{&domain.JournalEntry{}, &domain.DailyAnalysis{}, &domain.UsageLedger{}, &domain.WeeklyInsight{}}
}

// fakeEngine is a canned ai.Analyzer that records what it was given.
type fakeEngine struct {
	daily    *ai.DailyResult
	dailyErr error

	weekly    *ai.WeeklyResult
	weeklyErr error

	dailyCalls  int
	weeklyCalls int
	lastContent string
	lastAgg     ai.WeeklyAggregates
}

func (f *fakeEngine) AnalyzeDailyJournal(_ context.Context, content string) (*ai.DailyResult, error) {
	f.dailyCalls++
	f.lastContent = content
	if f.dailyErr != nil {
		return nil, f.dailyErr
	}
	if f.daily != nil {
		out := *f.daily
		return &out, nil
	}
	return &ai.DailyResult{
		ConfidenceScore: 60, AbundanceScore: 55, ClarityScore: 65,
		GratitudeScore: 70, ResistanceScore: 30, AlignmentScore: 64,
		DominantEmotion: "Hopeful", OverallTone: "calm", TimeHorizon: "short",
		BehavioralTags: []string{"contemplative"},
	}, nil
}

func (f *fakeEngine) GenerateWeeklyInsight(_ context.Context, agg ai.WeeklyAggregates) (*ai.WeeklyResult, error) {
	f.weeklyCalls++
	f.lastAgg = agg
	if f.weeklyErr != nil {
		return nil, f.weeklyErr
	}
	if f.weekly != nil {
		out := *f.weekly
		return &out, nil
	}
	return &ai.WeeklyResult{
		SummaryText:         fmt.Sprintf("Canned narrative for %d entries.", agg.EntryCount),
		ReflectionQuestion:  "Canned question?",
		DominantWeekEmotion: "Calm",
	}, nil
}

// gatedEngine wraps fakeEngine so race tests can hold callers at the engine
// boundary. gate is called with the arrival order (1, 2, ...) before the
// inner engine runs, letting a test decide exactly how two in-flight service
// calls interleave.
type gatedEngine struct {
	fakeEngine

	mu   sync.Mutex
	seen int
	gate func(arrival int)
}

func (g *gatedEngine) arrive() {
	g.mu.Lock()
	g.seen++
	n := g.seen
	g.mu.Unlock()
	g.gate(n)
}

func (g *gatedEngine) AnalyzeDailyJournal(ctx context.Context, content string) (*ai.DailyResult, error) {
	g.arrive()
	return g.fakeEngine.AnalyzeDailyJournal(ctx, content)
}

func (g *gatedEngine) GenerateWeeklyInsight(ctx context.Context, agg ai.WeeklyAggregates) (*ai.WeeklyResult, error) {
	g.arrive()
	return g.fakeEngine.GenerateWeeklyInsight(ctx, agg)
}

// seedAnalyzedDay writes an entry and an analysis with pinned scores so
// aggregation tests control their inputs exactly.
func seedAnalyzedDay(t *testing.T, db *gorm.DB, userID, date string, confidence int, emotion string, tags ...string) {
	t.Helper()
	ctx := context.Background()

	e, _, err := repo.UpsertEntry(ctx, db, userID, date, "entry "+date)
	if err != nil {
		t.Fatalf("seed entry %s: %v", date, err)
	}
	a := &domain.DailyAnalysis{
		JournalEntryID:  e.ID,
		UserID:          userID,
		ConfidenceScore: confidence,
		AbundanceScore:  50, ClarityScore: 50, GratitudeScore: 50, ResistanceScore: 50,
		AlignmentScore:  ai.AlignmentScore(confidence, 50, 50, 50, 50),
		DominantEmotion: emotion, OverallTone: "calm", TimeHorizon: "short",
		BehavioralTags: domain.StringList(tags),
	}
	if err := repo.CreateAnalysis(ctx, db, a); err != nil {
		t.Fatalf("seed analysis %s: %v", date, err)
	}
}

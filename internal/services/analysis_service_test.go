package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/selfspeak/selfspeak-backend/internal/domain"
	"github.com/selfspeak/selfspeak-backend/internal/repo"
)

// midweekClock pins "now" to Wednesday 2025-06-04 so every test lands in
// the week starting 2025-06-02.
func midweekClock() time.Time {
	return time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
}

func newAnalysisSvc(t *testing.T, db *gorm.DB, engine *fakeEngine, limit int) *AnalysisService {
	t.Helper()
	return &AnalysisService{DB: db, Engine: engine, WeeklyLimit: limit, Now: midweekClock}
}

func TestAnalyze_SuccessPersistsAndConsumesQuota(t *testing.T) {
	db := newSvcDB(t, allModels()...)
	engine := &fakeEngine{}
	svc := newAnalysisSvc(t, db, engine, 2)
	ctx := context.Background()

	entry, _, err := repo.UpsertEntry(ctx, db, "u1", "2025-06-04", "made progress today")
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	analysis, usage, created, err := svc.Analyze(ctx, "u1", "2025-06-04")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !created {
		t.Fatalf("first Analyze should report a newly generated analysis")
	}
	if analysis.ID == "" || analysis.JournalEntryID != entry.ID || analysis.UserID != "u1" {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
	if engine.dailyCalls != 1 || engine.lastContent != "made progress today" {
		t.Fatalf("engine saw calls=%d content=%q", engine.dailyCalls, engine.lastContent)
	}
	want := Usage{Count: 1, Limit: 2, WeekStart: "2025-06-02", ResetsOn: "2025-06-09"}
	if *usage != want {
		t.Fatalf("usage = %+v; want %+v", usage, want)
	}

	stored, err := repo.GetAnalysisByEntry(ctx, db, entry.ID)
	if err != nil || stored.ID != analysis.ID {
		t.Fatalf("stored analysis mismatch: %+v, %v", stored, err)
	}
}

func TestAnalyze_IdempotentPerEntry(t *testing.T) {
	db := newSvcDB(t, allModels()...)
	engine := &fakeEngine{}
	svc := newAnalysisSvc(t, db, engine, 2)
	ctx := context.Background()

	if _, _, err := repo.UpsertEntry(ctx, db, "u1", "2025-06-04", "same entry"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	first, _, _, err := svc.Analyze(ctx, "u1", "2025-06-04")
	if err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	second, usage, created, err := svc.Analyze(ctx, "u1", "2025-06-04")
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if created {
		t.Fatalf("replay must not report a new analysis")
	}
	if second.ID != first.ID {
		t.Fatalf("replay produced a new row: %s vs %s", second.ID, first.ID)
	}
	if engine.dailyCalls != 1 {
		t.Fatalf("engine ran %d times; replay must not re-run it", engine.dailyCalls)
	}
	if usage.Count != 1 {
		t.Fatalf("replay consumed quota: count=%d", usage.Count)
	}
}

func TestAnalyze_QuotaExceeded(t *testing.T) {
	db := newSvcDB(t, allModels()...)
	engine := &fakeEngine{}
	svc := newAnalysisSvc(t, db, engine, 1)
	ctx := context.Background()

	for _, d := range []string{"2025-06-03", "2025-06-04"} {
		if _, _, err := repo.UpsertEntry(ctx, db, "u1", d, "entry "+d); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}

	if _, _, _, err := svc.Analyze(ctx, "u1", "2025-06-03"); err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	analysis, usage, _, err := svc.Analyze(ctx, "u1", "2025-06-04")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if analysis != nil {
		t.Fatalf("denied call returned an analysis: %+v", analysis)
	}
	if usage == nil || usage.Count != 1 || usage.ResetsOn != "2025-06-09" {
		t.Fatalf("denied call usage = %+v", usage)
	}
	if engine.dailyCalls != 1 {
		t.Fatalf("engine ran on a denied call: %d", engine.dailyCalls)
	}

	// The second entry must remain unanalyzed.
	entry, err := repo.GetEntry(ctx, db, "u1", "2025-06-04")
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if _, err := repo.GetAnalysisByEntry(ctx, db, entry.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected no analysis for denied entry, got %v", err)
	}

	// Replaying the analyzed entry still works while the quota is spent.
	if _, _, _, err := svc.Analyze(ctx, "u1", "2025-06-03"); err != nil {
		t.Fatalf("replay under spent quota: %v", err)
	}
}

func TestAnalyze_EntryNotFoundAndBadDate(t *testing.T) {
	db := newSvcDB(t, allModels()...)
	svc := newAnalysisSvc(t, db, &fakeEngine{}, 2)

	if _, _, _, err := svc.Analyze(context.Background(), "u1", "2025-06-04"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if _, _, _, err := svc.Analyze(context.Background(), "u1", "04.06.2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestAnalyze_EngineFailureLeavesQuotaUntouched(t *testing.T) {
	db := newSvcDB(t, allModels()...)
	engine := &fakeEngine{dailyErr: errors.New("model unavailable")}
	svc := newAnalysisSvc(t, db, engine, 2)
	ctx := context.Background()

	if _, _, err := repo.UpsertEntry(ctx, db, "u1", "2025-06-04", "entry"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, _, _, err := svc.Analyze(ctx, "u1", "2025-06-04")
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("expected ErrAnalysisFailed, got %v", err)
	}
	if n, err := repo.GetUsage(ctx, db, "u1", "2025-06-02"); err != nil || n != 0 {
		t.Fatalf("engine failure consumed quota: %d, %v", n, err)
	}
}

// A storage failure after the ledger increment must roll the whole
// transaction back: no analysis row and no consumed quota.
func TestAnalyze_InsertFailureRollsBackQuota(t *testing.T) {
	db := newSvcDB(t, allModels()...)
	engine := &fakeEngine{}
	svc := newAnalysisSvc(t, db, engine, 2)
	ctx := context.Background()

	if _, _, err := repo.UpsertEntry(ctx, db, "u1", "2025-06-04", "entry"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := db.Callback().Create().Before("gorm:create").Register("force_analysis_insert_failure", func(tx *gorm.DB) {
		if tx.Statement != nil && tx.Statement.Table == "ai_analyses" {
			tx.AddError(errors.New("forced-insert-failure"))
		}
	}); err != nil {
		t.Fatalf("register create callback: %v", err)
	}

	if _, _, _, err := svc.Analyze(ctx, "u1", "2025-06-04"); err == nil {
		t.Fatalf("expected insert failure to surface")
	}
	if n, err := repo.GetUsage(ctx, db, "u1", "2025-06-02"); err != nil || n != 0 {
		t.Fatalf("failed persist consumed quota: %d, %v", n, err)
	}
	var rows int64
	db.Model(&domain.DailyAnalysis{}).Count(&rows)
	if rows != 0 {
		t.Fatalf("failed persist left %d analysis rows", rows)
	}
}

// Two callers analyze the same fresh entry at once. Both slip past the
// existence check before either commits, so the loser's insert hits the
// unique index, its consumed unit rolls back, and it is handed the winner's
// row. The net effect must be one analysis and one ledger increment.
func TestAnalyze_ConcurrentCallsConvergeOnOneRow(t *testing.T) {
	db := newSvcDB(t, allModels()...)
	ctx := context.Background()

	if _, _, err := repo.UpsertEntry(ctx, db, "u1", "2025-06-04", "racing entry"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// The first caller to reach the engine waits there until the second has
	// also passed its checks; the second then waits for the first to finish
	// before continuing into its own transaction.
	bothPastChecks := make(chan struct{})
	winnerDone := make(chan struct{})
	engine := &gatedEngine{gate: func(arrival int) {
		if arrival == 1 {
			<-bothPastChecks
			return
		}
		close(bothPastChecks)
		<-winnerDone
	}}
	svc := &AnalysisService{DB: db, Engine: engine, WeeklyLimit: 2, Now: midweekClock}

	type outcome struct {
		analysis *domain.DailyAnalysis
		usage    *Usage
		created  bool
		err      error
	}
	results := make(chan outcome, 2)
	var winnerOnce sync.Once
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, u, created, err := svc.Analyze(ctx, "u1", "2025-06-04")
			winnerOnce.Do(func() { close(winnerDone) })
			results <- outcome{a, u, created, err}
		}()
	}
	wg.Wait()
	close(results)

	createdCount := 0
	var ids []string
	for r := range results {
		if r.err != nil {
			t.Fatalf("racer failed: %v", r.err)
		}
		if r.created {
			createdCount++
		}
		if r.analysis == nil || r.analysis.ID == "" {
			t.Fatalf("racer got no analysis: %+v", r.analysis)
		}
		ids = append(ids, r.analysis.ID)
		if r.usage.Count != 1 {
			t.Fatalf("racer saw usage count %d; want 1", r.usage.Count)
		}
	}
	if createdCount != 1 {
		t.Fatalf("%d callers reported a new analysis; want exactly one", createdCount)
	}
	if ids[0] != ids[1] {
		t.Fatalf("callers diverged on the stored row: %s vs %s", ids[0], ids[1])
	}

	var rows int64
	db.Model(&domain.DailyAnalysis{}).Count(&rows)
	if rows != 1 {
		t.Fatalf("race left %d analysis rows; want 1", rows)
	}
	if n, err := repo.GetUsage(ctx, db, "u1", "2025-06-02"); err != nil || n != 1 {
		t.Fatalf("race consumed %d quota units (%v); want 1", n, err)
	}
	if engine.dailyCalls != 2 {
		t.Fatalf("both racers should have reached the engine; calls=%d", engine.dailyCalls)
	}
}

func TestOverview(t *testing.T) {
	db := newSvcDB(t, allModels()...)
	engine := &fakeEngine{}
	svc := newAnalysisSvc(t, db, engine, 2)
	ctx := context.Background()

	// Empty day: nils plus zero usage, and nothing is written.
	view, err := svc.Overview(ctx, "u1", "2025-06-04")
	if err != nil {
		t.Fatalf("Overview empty: %v", err)
	}
	if view.Entry != nil || view.Analysis != nil || view.Usage.Count != 0 {
		t.Fatalf("unexpected empty overview: %+v", view)
	}
	var n int64
	db.Model(&domain.JournalEntry{}).Count(&n)
	if n != 0 {
		t.Fatalf("read-only overview wrote %d entries", n)
	}

	if _, _, err := repo.UpsertEntry(ctx, db, "u1", "2025-06-04", "entry"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, _, err := svc.Analyze(ctx, "u1", "2025-06-04"); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	view, err = svc.Overview(ctx, "u1", "2025-06-04")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if view.Entry == nil || view.Analysis == nil {
		t.Fatalf("expected populated overview: %+v", view)
	}
	if view.Usage.Count != 1 || view.Usage.WeekStart != "2025-06-02" {
		t.Fatalf("overview usage = %+v", view.Usage)
	}

	if _, err := svc.Overview(ctx, "u1", "not-a-date"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

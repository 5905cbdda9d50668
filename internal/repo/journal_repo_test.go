package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/selfspeak/selfspeak-backend/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestUpsertEntry_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	e, _, err := UpsertEntry(context.Background(), db, "u1", "2025-06-02", "hello")
	if err == nil || e != nil {
		t.Fatalf("expected error writing without table, got entry=%v err=%v", e, err)
	}
}

func TestUpsertEntry_CreatesThenUpdates(t *testing.T) {
	db := newRepoDB(t, &domain.JournalEntry{})
	ctx := context.Background()

	e1, created, err := UpsertEntry(ctx, db, "u1", "2025-06-02", "first draft")
	if err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}
	if !created {
		t.Fatalf("expected first write to create a row")
	}
	if e1.ID == "" || e1.UserID != "u1" || e1.EntryDate != "2025-06-02" || e1.Content != "first draft" {
		t.Fatalf("unexpected entry fields: %+v", e1)
	}

	e2, created, err := UpsertEntry(ctx, db, "u1", "2025-06-02", "second draft")
	if err != nil {
		t.Fatalf("UpsertEntry (update): %v", err)
	}
	if created {
		t.Fatalf("expected second write to update in place")
	}
	if e2.ID != e1.ID {
		t.Fatalf("update changed the row identity: %s -> %s", e1.ID, e2.ID)
	}
	if e2.Content != "second draft" {
		t.Fatalf("content not replaced: %q", e2.Content)
	}

	n, err := CountEntries(ctx, db, "u1")
	if err != nil || n != 1 {
		t.Fatalf("CountEntries = %d, %v; want 1 row", n, err)
	}

	// A different day is a different row.
	if _, created, err := UpsertEntry(ctx, db, "u1", "2025-06-03", "next day"); err != nil || !created {
		t.Fatalf("expected new row for new day: created=%v err=%v", created, err)
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.JournalEntry{})
	_, err := GetEntry(context.Background(), db, "u1", "2025-06-02")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_, err = GetEntryByID(context.Background(), db, "nope", "u1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound by id, got %v", err)
	}
}

func TestListEntriesPage_OrderAndIsolation(t *testing.T) {
	db := newRepoDB(t, &domain.JournalEntry{})
	ctx := context.Background()

	for _, d := range []string{"2025-06-02", "2025-06-05", "2025-06-03"} {
		if _, _, err := UpsertEntry(ctx, db, "u1", d, "entry "+d); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}
	if _, _, err := UpsertEntry(ctx, db, "u2", "2025-06-04", "other user"); err != nil {
		t.Fatalf("seed other user: %v", err)
	}

	page, err := ListEntriesPage(ctx, db, "u1", 0, 2)
	if err != nil {
		t.Fatalf("ListEntriesPage: %v", err)
	}
	if len(page) != 2 || page[0].EntryDate != "2025-06-05" || page[1].EntryDate != "2025-06-03" {
		t.Fatalf("unexpected first page: %+v", page)
	}

	rest, err := ListEntriesPage(ctx, db, "u1", 2, 2)
	if err != nil {
		t.Fatalf("ListEntriesPage offset: %v", err)
	}
	if len(rest) != 1 || rest[0].EntryDate != "2025-06-02" {
		t.Fatalf("unexpected second page: %+v", rest)
	}
}

func TestEntriesStats(t *testing.T) {
	db := newRepoDB(t, &domain.JournalEntry{})
	ctx := context.Background()

	count, maxUpd, err := EntriesStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("EntriesStats empty: %v", err)
	}
	if count != 0 || maxUpd != nil {
		t.Fatalf("expected empty stats, got count=%d maxUpd=%v", count, maxUpd)
	}

	if _, _, err := UpsertEntry(ctx, db, "u1", "2025-06-02", "x"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	count, maxUpd, err = EntriesStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("EntriesStats: %v", err)
	}
	if count != 1 || maxUpd == nil || maxUpd.IsZero() {
		t.Fatalf("unexpected stats: count=%d maxUpd=%v", count, maxUpd)
	}
}

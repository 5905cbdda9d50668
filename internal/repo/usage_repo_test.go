package repo

import (
	"context"
	"testing"

	"github.com/selfspeak/selfspeak-backend/internal/domain"
)

func TestGetUsage_MissingRowReadsZero(t *testing.T) {
	db := newRepoDB(t, &domain.UsageLedger{})
	n, err := GetUsage(context.Background(), db, "u1", "2025-06-02")
	if err != nil || n != 0 {
		t.Fatalf("GetUsage = %d, %v; want 0, nil", n, err)
	}
	var rows int64
	db.Model(&domain.UsageLedger{}).Count(&rows)
	if rows != 0 {
		t.Fatalf("read must not create ledger rows, found %d", rows)
	}
}

func TestCheckAndIncrementUsage_GrantsUpToLimit(t *testing.T) {
	db := newRepoDB(t, &domain.UsageLedger{})
	ctx := context.Background()

	for want := 1; want <= 2; want++ {
		count, allowed, err := CheckAndIncrementUsage(ctx, db, "u1", "2025-06-02", 2)
		if err != nil {
			t.Fatalf("increment %d: %v", want, err)
		}
		if !allowed || count != want {
			t.Fatalf("increment %d: allowed=%v count=%d", want, allowed, count)
		}
	}

	// Third call must be denied and must not move the count.
	count, allowed, err := CheckAndIncrementUsage(ctx, db, "u1", "2025-06-02", 2)
	if err != nil {
		t.Fatalf("denied call errored: %v", err)
	}
	if allowed || count != 2 {
		t.Fatalf("expected denial at the cap: allowed=%v count=%d", allowed, count)
	}

	n, err := GetUsage(ctx, db, "u1", "2025-06-02")
	if err != nil || n != 2 {
		t.Fatalf("ledger moved past the cap: %d, %v", n, err)
	}
}

func TestCheckAndIncrementUsage_WeeksAreIndependent(t *testing.T) {
	db := newRepoDB(t, &domain.UsageLedger{})
	ctx := context.Background()

	if _, allowed, err := CheckAndIncrementUsage(ctx, db, "u1", "2025-06-02", 1); err != nil || !allowed {
		t.Fatalf("week one grant failed: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := CheckAndIncrementUsage(ctx, db, "u1", "2025-06-02", 1); err != nil || allowed {
		t.Fatalf("week one should be spent: allowed=%v err=%v", allowed, err)
	}
	// Next week opens fresh quota.
	count, allowed, err := CheckAndIncrementUsage(ctx, db, "u1", "2025-06-09", 1)
	if err != nil || !allowed || count != 1 {
		t.Fatalf("new week grant: count=%d allowed=%v err=%v", count, allowed, err)
	}
}

func TestCheckAndIncrementUsage_ZeroLimitAlwaysDenies(t *testing.T) {
	db := newRepoDB(t, &domain.UsageLedger{})
	count, allowed, err := CheckAndIncrementUsage(context.Background(), db, "u1", "2025-06-02", 0)
	if err != nil || allowed || count != 0 {
		t.Fatalf("zero limit: count=%d allowed=%v err=%v", count, allowed, err)
	}
}

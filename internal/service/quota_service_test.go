package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// fakeUsageRepo mirrors the storage contract in memory, including the day
// rollover the real repository applies on every read and write.
type fakeUsageRepo struct {
	mu   sync.Mutex
	rows map[string]*model.AIUsage
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{rows: make(map[string]*model.AIUsage)}
}

func (f *fakeUsageRepo) rolled(userID, day string) *model.AIUsage {
	row, ok := f.rows[userID]
	if !ok {
		row = &model.AIUsage{UserID: userID, UsageDate: day}
		f.rows[userID] = row
	}
	if row.UsageDate != day {
		row.UsageDate = day
		row.FreeCount = 0
		row.IsPaidOverride = false
	}
	return row
}

func (f *fakeUsageRepo) GetOrInitUsage(_ context.Context, userID, day string) (*model.AIUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.rolled(userID, day)
	copied := *row
	return &copied, nil
}

func (f *fakeUsageRepo) IncrementIfAllowed(_ context.Context, userID, day string, isPaid bool, freeLimit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.rolled(userID, day)
	if isPaid {
		row.IsPaidOverride = true
		return nil
	}
	if freeLimit > 0 && row.FreeCount >= freeLimit {
		return repository.ErrDailyLimitExceeded
	}
	row.FreeCount++
	return nil
}

func newTestQuotaService(repo repository.UsageRepository, freeLimit int) *quotaService {
	svc := NewQuotaService(repo, freeLimit, zerolog.Nop()).(*quotaService)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestCheckQuotaCountsDown(t *testing.T) {
	repo := newFakeUsageRepo()
	svc := newTestQuotaService(repo, 3)
	ctx := context.Background()

	for k := 0; k < 3; k++ {
		status, err := svc.CheckQuota(ctx, "u1")
		if err != nil {
			t.Fatalf("CheckQuota returned error: %v", err)
		}
		if status.FreeRemaining != 3-k {
			t.Fatalf("after %d increments, expected freeRemaining %d, got %d", k, 3-k, status.FreeRemaining)
		}
		if !status.CanGenerate {
			t.Fatalf("after %d increments, expected canGenerate true", k)
		}
		if status.NeedsPayment {
			t.Fatalf("after %d increments, expected needsPayment false", k)
		}
		if err := svc.IncrementUsage(ctx, "u1", false); err != nil {
			t.Fatalf("IncrementUsage returned error: %v", err)
		}
	}
}

func TestIncrementUsageExhausted(t *testing.T) {
	repo := newFakeUsageRepo()
	svc := newTestQuotaService(repo, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.IncrementUsage(ctx, "u1", false); err != nil {
			t.Fatalf("increment %d returned error: %v", i, err)
		}
	}

	err := svc.IncrementUsage(ctx, "u1", false)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	// The failed increment must not have mutated the counter.
	if got := repo.rows["u1"].FreeCount; got != 3 {
		t.Fatalf("expected freeCount to stay at 3, got %d", got)
	}

	status, err := svc.CheckQuota(ctx, "u1")
	if err != nil {
		t.Fatalf("CheckQuota returned error: %v", err)
	}
	if status.FreeRemaining != 0 || status.CanGenerate || !status.NeedsPayment {
		t.Fatalf("unexpected status after exhaustion: %+v", status)
	}
}

func TestPaidIncrementAlwaysSucceeds(t *testing.T) {
	repo := newFakeUsageRepo()
	svc := newTestQuotaService(repo, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.IncrementUsage(ctx, "u1", false); err != nil {
			t.Fatalf("increment %d returned error: %v", i, err)
		}
	}

	if err := svc.IncrementUsage(ctx, "u1", true); err != nil {
		t.Fatalf("paid increment returned error: %v", err)
	}
	if !repo.rows["u1"].IsPaidOverride {
		t.Fatal("expected paid override to be recorded")
	}

	status, err := svc.CheckQuota(ctx, "u1")
	if err != nil {
		t.Fatalf("CheckQuota returned error: %v", err)
	}
	if status.FreeRemaining != 0 {
		t.Fatalf("paid increment must not touch the free allotment, got remaining %d", status.FreeRemaining)
	}
}

func TestQuotaResetsOnNewDay(t *testing.T) {
	repo := newFakeUsageRepo()
	svc := newTestQuotaService(repo, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.IncrementUsage(ctx, "u1", false); err != nil {
			t.Fatalf("increment %d returned error: %v", i, err)
		}
	}

	svc.now = func() time.Time {
		return time.Date(2025, 6, 2, 0, 5, 0, 0, time.UTC)
	}

	status, err := svc.CheckQuota(ctx, "u1")
	if err != nil {
		t.Fatalf("CheckQuota returned error: %v", err)
	}
	if status.FreeRemaining != 3 {
		t.Fatalf("expected full allotment on new day, got %d", status.FreeRemaining)
	}
	if err := svc.IncrementUsage(ctx, "u1", false); err != nil {
		t.Fatalf("increment on new day returned error: %v", err)
	}
}

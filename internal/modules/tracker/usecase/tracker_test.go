package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	trackerout "worksmart/internal/modules/tracker/adapter/out"
	"worksmart/internal/modules/tracker/domain"
	"worksmart/internal/modules/tracker/service"
	"worksmart/internal/modules/tracker/usecase"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

type failingStore struct{ readErr, writeErr error }

func (f failingStore) ReadTracker(context.Context) (domain.TrackHistory, error) {
	return domain.NewTrackHistory(), f.readErr
}

func (f failingStore) WriteTracker(context.Context, domain.TrackHistory) error {
	return f.writeErr
}

func readFile(t *testing.T, dir string) domain.TrackHistory {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, "tracker.json"))
	if err != nil {
		t.Fatalf("read tracker file: %v", err)
	}
	history := domain.TrackHistory{}
	if err := json.Unmarshal(raw, &history); err != nil {
		t.Fatalf("decode tracker file: %v", err)
	}
	return history
}

func TestIncrementCreatesThenAccumulatesAndSaveWritesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	clk := &fakeClock{now: time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)}
	uc := usecase.NewInteractor(service.NewTrackerService(clk, trackerout.NewFileHistoryStore(dir)))
	ctx := context.Background()

	today, err := uc.GetToday(ctx)
	if err != nil || today.Seconds != 0 || today.Day != "2026-3-7" {
		t.Fatalf("expected empty today, got %+v, %v", today, err)
	}
	if _, err := uc.IncrementToday(ctx, 120*time.Second); err != nil {
		t.Fatalf("increment: %v", err)
	}
	out, err := uc.IncrementToday(ctx, 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if out.Seconds != 121 {
		t.Fatalf("expected 121 seconds (sub-second dropped), got %d", out.Seconds)
	}
	if _, err := os.Stat(filepath.Join(dir, "tracker.json")); !os.IsNotExist(err) {
		t.Fatalf("increment alone must not write the file")
	}
	if err := uc.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := readFile(t, dir).ForDay("2026-3-7"); got != 121 {
		t.Fatalf("expected 121 persisted, got %d", got)
	}

	reloaded := usecase.NewInteractor(service.NewTrackerService(clk, trackerout.NewFileHistoryStore(dir)))
	today, err = reloaded.GetToday(ctx)
	if err != nil || today.Seconds != 121 {
		t.Fatalf("expected reload to see 121, got %+v, %v", today, err)
	}
}

func TestCleanUpKeepsOnlyTodayAndSaves(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := trackerout.NewFileHistoryStore(dir)
	seed := domain.TrackHistory{History: map[string]int64{"2026-3-5": 10, "2026-3-6": 20, "2026-3-7": 30}}
	if err := store.WriteTracker(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	clk := &fakeClock{now: time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)}
	uc := usecase.NewInteractor(service.NewTrackerService(clk, store))

	out, err := uc.CleanUp(context.Background())
	if err != nil {
		t.Fatalf("clean up: %v", err)
	}
	if out.Removed != 2 || out.Today != "2026-3-7" {
		t.Fatalf("unexpected clean up result %+v", out)
	}
	persisted := readFile(t, dir)
	if len(persisted.History) != 1 || persisted.ForDay("2026-3-7") != 30 {
		t.Fatalf("expected only today on disk, got %v", persisted.History)
	}

	clk.set(time.Date(2026, 3, 8, 0, 0, 1, 0, time.UTC))
	if _, err := uc.CleanUp(context.Background()); err != nil {
		t.Fatalf("clean up next day: %v", err)
	}
	history, err := uc.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected zero keys when today has no entry, got %v", history)
	}
}

func TestHistoryIsChronological(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)}
	dir := t.TempDir()
	store := trackerout.NewFileHistoryStore(dir)
	if err := store.WriteTracker(context.Background(), domain.TrackHistory{History: map[string]int64{"2026-10-1": 5, "2026-9-30": 7}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	uc := usecase.NewInteractor(service.NewTrackerService(clk, store))
	history, err := uc.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Day != "2026-9-30" || history[1].Seconds != 5 {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestStoreErrorsSurface(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)}
	boom := errors.New("disk full")

	uc := usecase.NewInteractor(service.NewTrackerService(clk, failingStore{readErr: boom}))
	if _, err := uc.GetToday(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
	uc = usecase.NewInteractor(service.NewTrackerService(clk, failingStore{writeErr: boom}))
	if err := uc.Save(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestConcurrentIncrementsAreSerialised(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)}
	uc := usecase.NewInteractor(service.NewTrackerService(clk, trackerout.NewFileHistoryStore(t.TempDir())))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = uc.IncrementToday(context.Background(), 2*time.Second)
			_ = uc.Save(context.Background())
		}()
	}
	wg.Wait()
	today, err := uc.GetToday(context.Background())
	if err != nil || today.Seconds != 100 {
		t.Fatalf("expected 100 seconds, got %+v, %v", today, err)
	}
}

func TestTwoWritersOnOneFileKeepBothIncrements(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := context.Background()
	clk := &fakeClock{now: time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)}
	store := trackerout.NewFileHistoryStore(dir)
	daemon := usecase.NewInteractor(service.NewTrackerService(clk, store))
	foreground := usecase.NewInteractor(service.NewTrackerService(clk, trackerout.NewFileHistoryStore(dir)))

	if _, err := daemon.CleanUp(ctx); err != nil {
		t.Fatalf("clean up: %v", err)
	}
	if _, err := foreground.IncrementToday(ctx, 100*time.Second); err != nil {
		t.Fatalf("increment foreground: %v", err)
	}
	if err := foreground.Save(ctx); err != nil {
		t.Fatalf("save foreground: %v", err)
	}
	out, err := daemon.IncrementToday(ctx, 50*time.Second)
	if err != nil {
		t.Fatalf("increment daemon: %v", err)
	}
	if out.Seconds != 150 {
		t.Fatalf("expected increment to see the other writer, got %d", out.Seconds)
	}
	if err := daemon.Save(ctx); err != nil {
		t.Fatalf("save daemon: %v", err)
	}
	if got := readFile(t, dir).ForDay("2026-3-7"); got != 150 {
		t.Fatalf("expected 150 on disk, got %d", got)
	}

	// Saving again without new increments must not double count.
	if err := daemon.Save(ctx); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if got := readFile(t, dir).ForDay("2026-3-7"); got != 150 {
		t.Fatalf("expected 150 after idempotent save, got %d", got)
	}
}

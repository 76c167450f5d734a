package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	capsuledomain "worksmart/internal/modules/capsule/domain"
	capsuledto "worksmart/internal/modules/capsule/dto"
	prefsdomain "worksmart/internal/modules/preferences/domain"
	prefsin "worksmart/internal/modules/preferences/port/in"
	sessionout "worksmart/internal/modules/session/adapter/out"
	"worksmart/internal/modules/session/domain"
	sessiondto "worksmart/internal/modules/session/dto"
	sessionin "worksmart/internal/modules/session/port/in"
	"worksmart/internal/modules/session/service"
	"worksmart/internal/modules/session/usecase"
	trackerdto "worksmart/internal/modules/tracker/dto"
	"worksmart/internal/platform/cancel"
	apperrors "worksmart/internal/platform/errors"
	"worksmart/internal/platform/logging"
)

var start = time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type fixedID struct{ id string }

func (f fixedID) New() string { return f.id }

// fakeRecorder simulates capsules on a step clock. Each capsule lasts the
// configured duration unless shutdown fires first.
type fakeRecorder struct {
	clock      *stepClock
	blockUntil bool

	mu          sync.Mutex
	opened      []*capsuledomain.TimeCapsule
	openErrs    []error
	persistErr  error
	persistGate chan struct{}
	onRecord    func(n int)
}

func (f *fakeRecorder) Open(_ context.Context, req capsuledto.OpenRequest) (*capsuledomain.TimeCapsule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.openErrs) > 0 {
		err := f.openErrs[0]
		f.openErrs = f.openErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	id := start.Add(time.Duration(len(f.opened)) * time.Hour).Format("20060102T150405Z")
	c, err := capsuledomain.New(id, req.SessionID, req.StorageRoot+"/"+id, req.MediaRoot+"/"+id, f.clock.Now())
	if err != nil {
		return nil, err
	}
	f.opened = append(f.opened, c)
	return c, nil
}

func (f *fakeRecorder) Record(ctx context.Context, c *capsuledomain.TimeCapsule, opts capsuledto.RecordOptions, shutdown *cancel.Token) (bool, error) {
	f.mu.Lock()
	n := len(f.opened)
	hook := f.onRecord
	f.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	if f.blockUntil {
		if err := shutdown.Recv(ctx); err != nil {
			return true, err
		}
		return true, c.Exit(f.clock.Advance(5*time.Second), capsuledomain.EndShutdown)
	}
	return false, c.Exit(f.clock.Advance(opts.Duration), capsuledomain.EndTimeout)
}

func (f *fakeRecorder) Persist(_ context.Context, c *capsuledomain.TimeCapsule) error {
	if f.persistGate != nil {
		<-f.persistGate
	}
	if f.persistErr != nil {
		return f.persistErr
	}
	return c.MarkPersisted()
}

type fakeTracker struct {
	mu    sync.Mutex
	total time.Duration
	saves int
}

func (f *fakeTracker) GetToday(context.Context) (trackerdto.TodayOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return trackerdto.TodayOutput{Day: "2026-3-7", Seconds: int64(f.total / time.Second)}, nil
}

func (f *fakeTracker) IncrementToday(_ context.Context, delta time.Duration) (trackerdto.TodayOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total += delta
	return trackerdto.TodayOutput{Day: "2026-3-7", Seconds: int64(f.total / time.Second)}, nil
}

func (f *fakeTracker) Save(context.Context) error {
	f.mu.Lock()
	f.saves++
	f.mu.Unlock()
	return nil
}

func (f *fakeTracker) CleanUp(context.Context) (trackerdto.CleanUpOutput, error) {
	return trackerdto.CleanUpOutput{}, nil
}

func (f *fakeTracker) History(context.Context) ([]trackerdto.DayTotal, error) {
	return nil, nil
}

type fakePrefs struct {
	settings prefsdomain.Settings
	err      error
}

func (f fakePrefs) Get(context.Context) (prefsin.Settings, error) {
	return f.settings, f.err
}

func (f fakePrefs) Set(context.Context, string, string) (prefsin.Settings, error) {
	return f.settings, nil
}

type harness struct {
	uc       sessionin.Usecase
	recorder *fakeRecorder
	tracker  *fakeTracker
	home     string
}

func newHarness(t *testing.T, recorder *fakeRecorder) harness {
	t.Helper()
	home := t.TempDir()
	settings := prefsdomain.Defaults()
	settings.Preferences.TimeGapDurationSeconds = 120
	tracker := &fakeTracker{}
	svc := service.NewSessionService(recorder, tracker, fakePrefs{settings: settings}, sessionout.NewFileEventLog(home), home, service.Options{
		Clock:   recorder.clock,
		Sleeper: func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
		Logger:  logging.Discard(),
	})
	uc := usecase.NewInteractor(svc, recorder.clock, fixedID{id: "sess-1"}, sessionout.NewFileActiveSessionStore(home), logging.Discard())
	return harness{uc: uc, recorder: recorder, tracker: tracker, home: home}
}

func waitSession(t *testing.T, uc sessionin.Usecase) sessiondto.SessionOutput {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := uc.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if err := uc.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	return out
}

func eventKinds(t *testing.T, uc sessionin.Usecase) []string {
	t.Helper()
	events, err := uc.Events(context.Background(), 0)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	kinds := make([]string, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func count(kinds []string, kind domain.EventKind) int {
	n := 0
	for _, k := range kinds {
		if k == string(kind) {
			n++
		}
	}
	return n
}

func TestTwoSequentialCapsulesSumIntoToday(t *testing.T) {
	t.Parallel()
	recorder := &fakeRecorder{clock: &stepClock{now: start}}
	h := newHarness(t, recorder)
	recorder.onRecord = func(n int) {
		if n == 2 {
			if _, err := h.uc.Stop(context.Background(), sessiondto.StopInput{Mode: "after_current"}); err != nil {
				t.Errorf("stop: %v", err)
			}
		}
	}

	started, err := h.uc.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.ID != "sess-1" || !started.Running {
		t.Fatalf("unexpected start output %+v", started)
	}
	ended := waitSession(t, h.uc)
	if ended.Running || ended.EndedAt.IsZero() {
		t.Fatalf("session must be ended, got %+v", ended)
	}

	if len(recorder.opened) != 2 {
		t.Fatalf("expected 2 capsules, got %d", len(recorder.opened))
	}
	first, second := recorder.opened[0], recorder.opened[1]
	firstEnd, _ := first.EndedAt()
	if firstEnd.After(second.StartedAt) {
		t.Fatalf("capsules overlap: %s > %s", firstEnd, second.StartedAt)
	}
	if h.tracker.total != 4*time.Minute {
		t.Fatalf("expected 240s tracked, got %s", h.tracker.total)
	}
	for _, c := range recorder.opened {
		if c.State() != capsuledomain.StatePersisted {
			t.Fatalf("capsule %s not persisted: %s", c.ID, c.State())
		}
	}
	kinds := eventKinds(t, h.uc)
	if kinds[0] != string(domain.EventSessionStarted) || count(kinds, domain.EventSessionEnded) != 1 {
		t.Fatalf("unexpected events %v", kinds)
	}
	if count(kinds, domain.EventCapsulePersisted) != 2 || count(kinds, domain.EventCapsuleEnded) != 2 {
		t.Fatalf("expected two ended and persisted capsules, got %v", kinds)
	}
}

func TestImmediateStopEndsRunningCapsule(t *testing.T) {
	t.Parallel()
	recorder := &fakeRecorder{clock: &stepClock{now: start}, blockUntil: true}
	h := newHarness(t, recorder)
	recorded := make(chan struct{})
	var once sync.Once
	recorder.onRecord = func(int) { once.Do(func() { close(recorded) }) }

	if _, err := h.uc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-recorded
	if _, err := h.uc.Stop(context.Background(), sessiondto.StopInput{Mode: "immediate"}); err != nil {
		t.Fatalf("stop: %v", err)
	}
	waitSession(t, h.uc)

	if len(recorder.opened) != 1 {
		t.Fatalf("no capsule may start after shutdown, got %d", len(recorder.opened))
	}
	if recorder.opened[0].Reason() != capsuledomain.EndShutdown {
		t.Fatalf("expected shutdown end, got %s", recorder.opened[0].Reason())
	}
	if h.tracker.total != 5*time.Second {
		t.Fatalf("expected 5s tracked, got %s", h.tracker.total)
	}
}

func TestFailedAttemptDoesNotEndSession(t *testing.T) {
	t.Parallel()
	recorder := &fakeRecorder{clock: &stepClock{now: start}, openErrs: []error{errors.New("permission denied")}}
	h := newHarness(t, recorder)
	recorder.onRecord = func(int) {
		_, _ = h.uc.Stop(context.Background(), sessiondto.StopInput{Mode: "after_current"})
	}

	if _, err := h.uc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitSession(t, h.uc)
	if len(recorder.opened) != 1 {
		t.Fatalf("expected the loop to retry and record one capsule, got %d", len(recorder.opened))
	}
	kinds := eventKinds(t, h.uc)
	if count(kinds, domain.EventCapsuleFailed) != 1 {
		t.Fatalf("expected one failed attempt, got %v", kinds)
	}
}

func TestPersistFailureDropsCapsuleButKeepsTime(t *testing.T) {
	t.Parallel()
	recorder := &fakeRecorder{clock: &stepClock{now: start}, persistErr: errors.New("disk full")}
	h := newHarness(t, recorder)
	recorder.onRecord = func(int) {
		_, _ = h.uc.Stop(context.Background(), sessiondto.StopInput{Mode: "after_current"})
	}

	if _, err := h.uc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitSession(t, h.uc)
	kinds := eventKinds(t, h.uc)
	if count(kinds, domain.EventCapsuleDropped) != 1 || count(kinds, domain.EventCapsulePersisted) != 0 {
		t.Fatalf("expected a dropped capsule, got %v", kinds)
	}
	if h.tracker.total != 2*time.Minute || h.tracker.saves != 1 {
		t.Fatalf("expected tracked time to be saved, got %s after %d saves", h.tracker.total, h.tracker.saves)
	}
}

func TestStartIsNoOpWhileRunning(t *testing.T) {
	t.Parallel()
	recorder := &fakeRecorder{clock: &stepClock{now: start}, blockUntil: true}
	h := newHarness(t, recorder)

	first, err := h.uc.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := h.uc.Start(context.Background())
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if first.ID != second.ID || !first.StartedAt.Equal(second.StartedAt) {
		t.Fatalf("second start must return the running session, got %+v and %+v", first, second)
	}
	got, err := h.uc.Get(context.Background())
	if err != nil || !got.Running {
		t.Fatalf("get: %+v %v", got, err)
	}
	if err := h.uc.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	got, _ = h.uc.Get(context.Background())
	if got.Running {
		t.Fatalf("session must be ended after shutdown")
	}
}

func TestStopValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, &fakeRecorder{clock: &stepClock{now: start}})
	if _, err := h.uc.Stop(context.Background(), sessiondto.StopInput{}); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if _, err := h.uc.Stop(context.Background(), sessiondto.StopInput{Mode: "eventually"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := h.uc.Get(context.Background()); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession before any start, got %v", err)
	}
}

type sequenceID struct {
	mu  sync.Mutex
	ids []string
}

func (s *sequenceID) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.ids[0]
	s.ids = s.ids[1:]
	return id
}

// gatedActiveStore holds the first ClearActive until release is closed.
type gatedActiveStore struct {
	inner    *sessionout.FileActiveSessionStore
	clearing chan struct{}
	release  chan struct{}
	cleared  chan struct{}
	once     sync.Once
}

func (g *gatedActiveStore) SaveActive(ctx context.Context, active domain.ActiveSession) error {
	return g.inner.SaveActive(ctx, active)
}

func (g *gatedActiveStore) LoadActive(ctx context.Context) (domain.ActiveSession, error) {
	return g.inner.LoadActive(ctx)
}

func (g *gatedActiveStore) ClearActive(ctx context.Context, sessionID string) error {
	first := false
	g.once.Do(func() { first = true })
	if !first {
		return g.inner.ClearActive(ctx, sessionID)
	}
	close(g.clearing)
	<-g.release
	err := g.inner.ClearActive(ctx, sessionID)
	close(g.cleared)
	return err
}

func TestRestartWhileFinishingKeepsNewSessionMarker(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	recorder := &fakeRecorder{clock: &stepClock{now: start}, blockUntil: true}
	settings := prefsdomain.Defaults()
	svc := service.NewSessionService(recorder, &fakeTracker{}, fakePrefs{settings: settings}, sessionout.NewFileEventLog(home), home, service.Options{
		Clock:   recorder.clock,
		Sleeper: func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
		Logger:  logging.Discard(),
	})
	store := &gatedActiveStore{
		inner:    sessionout.NewFileActiveSessionStore(home).(*sessionout.FileActiveSessionStore),
		clearing: make(chan struct{}),
		release:  make(chan struct{}),
		cleared:  make(chan struct{}),
	}
	uc := usecase.NewInteractor(svc, recorder.clock, &sequenceID{ids: []string{"sess-b", "sess-c"}}, store, logging.Discard())
	ctx := context.Background()

	if _, err := uc.Start(ctx); err != nil {
		t.Fatalf("start b: %v", err)
	}
	if _, err := uc.Stop(ctx, sessiondto.StopInput{Mode: "immediate"}); err != nil {
		t.Fatalf("stop b: %v", err)
	}
	select {
	case <-store.clearing:
	case <-time.After(2 * time.Second):
		t.Fatalf("session b never cleared its marker")
	}

	next, err := uc.Start(ctx)
	if err != nil {
		t.Fatalf("start c: %v", err)
	}
	if next.ID != "sess-c" || !next.Running {
		t.Fatalf("expected a fresh running session, got %+v", next)
	}
	close(store.release)
	select {
	case <-store.cleared:
	case <-time.After(2 * time.Second):
		t.Fatalf("session b did not finish clearing")
	}

	active, err := store.LoadActive(ctx)
	if err != nil || active.SessionID != "sess-c" {
		t.Fatalf("running session must keep its marker, got %+v, %v", active, err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := uc.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if _, err := store.LoadActive(ctx); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected marker cleared after shutdown, got %v", err)
	}
}

func TestDrainWhileRecordingWaitsForLaterSettlements(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	recorder := &fakeRecorder{
		clock:       &stepClock{now: start},
		persistGate: gate,
		onRecord:    func(int) { time.Sleep(2 * time.Millisecond) },
	}
	home := t.TempDir()
	settings := prefsdomain.Defaults()
	settings.Preferences.TimeGapDurationSeconds = 60
	tracker := &fakeTracker{}
	svc := service.NewSessionService(recorder, tracker, fakePrefs{settings: settings}, sessionout.NewFileEventLog(home), home, service.Options{
		Clock:  recorder.clock,
		Logger: logging.Discard(),
	})
	uc := usecase.NewInteractor(svc, recorder.clock, fixedID{id: "sess-1"}, sessionout.NewFileActiveSessionStore(home), logging.Discard())
	ctx := context.Background()

	if _, err := uc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		recorder.mu.Lock()
		opened := len(recorder.opened)
		recorder.mu.Unlock()
		if opened >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session did not get past its first capsule")
		}
		time.Sleep(time.Millisecond)
	}
	// Capsules keep settling while Drain waits on the ones already parked.
	for i := 0; i < 3; i++ {
		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		err := svc.Drain(short)
		cancel()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected drain to wait for parked settlements, got %v", err)
		}
	}

	if _, err := uc.Stop(ctx, sessiondto.StopInput{Mode: "after_current"}); err != nil {
		t.Fatalf("stop: %v", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := uc.Wait(waitCtx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	close(gate)
	if err := svc.Drain(waitCtx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	recorder.mu.Lock()
	opened := len(recorder.opened)
	recorder.mu.Unlock()
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if tracker.total != time.Duration(opened)*time.Minute || tracker.saves != opened {
		t.Fatalf("expected %d settled capsules, got %s after %d saves", opened, tracker.total, tracker.saves)
	}
}

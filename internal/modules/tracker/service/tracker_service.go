package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"worksmart/internal/modules/tracker/domain"
	trackerout "worksmart/internal/modules/tracker/port/out"
	"worksmart/internal/platform/clock"
)

// TrackerService accumulates unsaved seconds per day and merges them into
// whatever is on disk at Save time. Every read goes back to the store, so a
// second writer sharing the file is never reverted.
type TrackerService struct {
	clock clock.Clock
	store trackerout.HistoryStore

	mu      sync.Mutex
	pending domain.TrackHistory
}

func NewTrackerService(clock clock.Clock, store trackerout.HistoryStore) *TrackerService {
	return &TrackerService{clock: clock, store: store, pending: domain.NewTrackHistory()}
}

// currentLocked returns the stored history with unsaved deltas applied.
func (s *TrackerService) currentLocked(ctx context.Context) (domain.TrackHistory, error) {
	history, err := s.store.ReadTracker(ctx)
	if err != nil {
		return domain.TrackHistory{}, fmt.Errorf("load tracker: %w", err)
	}
	merged := history.Clone()
	for day, seconds := range s.pending.History {
		merged.Increment(day, seconds)
	}
	return merged, nil
}

func (s *TrackerService) Today() string {
	return domain.DayKey(s.clock.Now())
}

func (s *TrackerService) GetToday(ctx context.Context) (string, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, err := s.currentLocked(ctx)
	if err != nil {
		return "", 0, err
	}
	day := s.Today()
	return day, history.ForDay(day), nil
}

// IncrementToday adds whole seconds of delta to today's entry. The change
// reaches the store on the next Save.
func (s *TrackerService) IncrementToday(ctx context.Context, delta time.Duration) (string, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, err := s.currentLocked(ctx)
	if err != nil {
		return "", 0, err
	}
	day := s.Today()
	seconds := int64(delta / time.Second)
	s.pending.Increment(day, seconds)
	return day, history.Increment(day, seconds), nil
}

func (s *TrackerService) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, err := s.currentLocked(ctx)
	if err != nil {
		return err
	}
	if err := s.store.WriteTracker(ctx, history); err != nil {
		return fmt.Errorf("save tracker: %w", err)
	}
	s.pending = domain.NewTrackHistory()
	return nil
}

// CleanUp keeps only today's entry and saves.
func (s *TrackerService) CleanUp(ctx context.Context) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, err := s.currentLocked(ctx)
	if err != nil {
		return "", 0, err
	}
	day := s.Today()
	removed := history.Retain(day)
	if err := s.store.WriteTracker(ctx, history); err != nil {
		return "", 0, fmt.Errorf("save tracker: %w", err)
	}
	s.pending = domain.NewTrackHistory()
	return day, removed, nil
}

func (s *TrackerService) History(ctx context.Context) (domain.TrackHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(ctx)
}

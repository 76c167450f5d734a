package domain

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"worksmart/internal/platform/cancel"
)

var ErrInvalidStopMode = errors.New("invalid stop mode")

type StopMode string

const (
	// StopImmediate ends the running capsule now and stops the session.
	StopImmediate StopMode = "immediate"
	// StopAfterCurrent lets the running capsule reach its natural end first.
	StopAfterCurrent StopMode = "after_current"
)

func ParseStopMode(raw string) (StopMode, error) {
	switch StopMode(raw) {
	case "", StopImmediate:
		return StopImmediate, nil
	case StopAfterCurrent:
		return StopAfterCurrent, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStopMode, raw)
	}
}

// ActiveSession is the on-disk marker of a running session.
type ActiveSession struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	PID       int       `json:"pid"`
}

// Session is one monitoring run. It owns the sending side of two signals:
// shutdown stops the session at once, soft stop after the current capsule.
type Session struct {
	ID        string
	StartedAt time.Time

	shutdown *cancel.Source
	softStop *cancel.Source
	done     chan struct{}

	mu      sync.Mutex
	running bool
	endedAt time.Time
}

func NewSession(id string, startedAt time.Time) *Session {
	return &Session{
		ID:        id,
		StartedAt: startedAt.UTC(),
		shutdown:  cancel.NewSource(),
		softStop:  cancel.NewSource(),
		done:      make(chan struct{}),
		running:   true,
	}
}

func (s *Session) ShutdownToken() *cancel.Token {
	return s.shutdown.Token()
}

func (s *Session) SoftStopToken() *cancel.Token {
	return s.softStop.Token()
}

func (s *Session) Stop(mode StopMode) {
	if mode == StopAfterCurrent {
		s.softStop.Fire()
		return
	}
	s.shutdown.Fire()
}

// Finish marks the session ended. Only the first call has an effect and
// reports true.
func (s *Session) Finish(at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.running = false
	s.endedAt = at.UTC()
	s.shutdown.Close()
	s.softStop.Close()
	close(s.done)
	return true
}

func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{ID: s.ID, StartedAt: s.StartedAt, EndedAt: s.endedAt, Running: s.running}
}

type Snapshot struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
	Running   bool
}

package domain

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrNotRecording = errors.New("capsule is not recording")
	ErrNotExited    = errors.New("capsule has not exited")
	ErrPersisted    = errors.New("capsule already persisted")
	ErrInvalid      = errors.New("invalid capsule")
)

type State int

const (
	StateRecording State = iota
	StateExiting
	StatePersisted
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateExiting:
		return "exiting"
	case StatePersisted:
		return "persisted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type EndReason string

const (
	EndTimeout  EndReason = "timeout"
	EndShutdown EndReason = "shutdown"
)

type WindowEvent struct {
	AppName string    `json:"app_name"`
	Title   string    `json:"title"`
	At      time.Time `json:"timestamp"`
}

type Media struct {
	Kind       string    `json:"kind"`
	Path       string    `json:"path"`
	CapturedAt time.Time `json:"captured_at"`
}

// TimeCapsule is one bounded recording interval. Each sequence has a single
// writer and may be read at any time. Once the capsule exits nothing more is
// appended.
type TimeCapsule struct {
	ID          string
	SessionID   string
	StartedAt   time.Time
	StoragePath string
	MediaPath   string

	clicks     series[time.Time]
	keystrokes series[time.Time]
	windows    series[WindowEvent]
	media      series[Media]

	mu      sync.Mutex
	state   State
	endedAt time.Time
	reason  EndReason
}

func New(id, sessionID, storagePath, mediaPath string, startedAt time.Time) (*TimeCapsule, error) {
	if id == "" || storagePath == "" {
		return nil, fmt.Errorf("%w: id and storage path are required", ErrInvalid)
	}
	return &TimeCapsule{
		ID:          id,
		SessionID:   sessionID,
		StartedAt:   startedAt.UTC(),
		StoragePath: storagePath,
		MediaPath:   mediaPath,
	}, nil
}

// RecordClick reports false when the capsule no longer accepts input.
func (c *TimeCapsule) RecordClick(at time.Time) bool {
	return c.clicks.append(at.UTC())
}

func (c *TimeCapsule) RecordKeystroke(at time.Time) bool {
	return c.keystrokes.append(at.UTC())
}

func (c *TimeCapsule) RecordWindow(ev WindowEvent) bool {
	ev.At = ev.At.UTC()
	return c.windows.append(ev)
}

func (c *TimeCapsule) AddMedia(m Media) bool {
	m.CapturedAt = m.CapturedAt.UTC()
	return c.media.append(m)
}

func (c *TimeCapsule) LastWindow() (WindowEvent, bool) {
	return c.windows.last()
}

func (c *TimeCapsule) Clicks() []time.Time     { return c.clicks.snapshot() }
func (c *TimeCapsule) Keystrokes() []time.Time { return c.keystrokes.snapshot() }
func (c *TimeCapsule) Windows() []WindowEvent  { return c.windows.snapshot() }
func (c *TimeCapsule) MediaItems() []Media     { return c.media.snapshot() }

func (c *TimeCapsule) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Exit moves the capsule from Recording to Exiting and freezes every sequence.
// An end before the start is clamped to the start.
func (c *TimeCapsule) Exit(at time.Time, reason EndReason) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRecording {
		return fmt.Errorf("%w: %s is %s", ErrNotRecording, c.ID, c.state)
	}
	at = at.UTC()
	if at.Before(c.StartedAt) {
		at = c.StartedAt
	}
	c.clicks.freeze()
	c.keystrokes.freeze()
	c.windows.freeze()
	c.media.freeze()
	c.endedAt = at
	c.reason = reason
	c.state = StateExiting
	return nil
}

func (c *TimeCapsule) MarkPersisted() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateRecording:
		return fmt.Errorf("%w: %s", ErrNotExited, c.ID)
	case StatePersisted:
		return fmt.Errorf("%w: %s", ErrPersisted, c.ID)
	}
	c.state = StatePersisted
	return nil
}

func (c *TimeCapsule) EndedAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endedAt, c.state != StateRecording
}

func (c *TimeCapsule) Reason() EndReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Elapsed is the wall-clock span of an exited capsule in whole seconds.
func (c *TimeCapsule) Elapsed() time.Duration {
	ended, ok := c.EndedAt()
	if !ok {
		return 0
	}
	return ended.Sub(c.StartedAt).Truncate(time.Second)
}

// Storage projects an exited capsule into its persisted form.
func (c *TimeCapsule) Storage() (StorageCapsule, error) {
	ended, ok := c.EndedAt()
	if !ok {
		return StorageCapsule{}, fmt.Errorf("%w: %s", ErrNotExited, c.ID)
	}
	return StorageCapsule{
		ID:          c.ID,
		SessionID:   c.SessionID,
		MouseClicks: c.Clicks(),
		Keystrokes:  c.Keystrokes(),
		Windows:     c.Windows(),
		Media:       c.MediaItems(),
		StartedAt:   c.StartedAt,
		EndedAt:     ended,
		EndReason:   c.Reason(),
	}, nil
}

// StorageCapsule is the immutable form written to metadata.json.
type StorageCapsule struct {
	ID          string        `json:"id"`
	SessionID   string        `json:"session_id"`
	MouseClicks []time.Time   `json:"mouse_clicks"`
	Keystrokes  []time.Time   `json:"keystrokes"`
	Windows     []WindowEvent `json:"window_events"`
	Media       []Media       `json:"media"`
	StartedAt   time.Time     `json:"started_at"`
	EndedAt     time.Time     `json:"ended_at"`
	EndReason   EndReason     `json:"end_reason"`
}

// Summary is the indexed view of a persisted capsule.
type Summary struct {
	ID          string
	SessionID   string
	StartedAt   time.Time
	EndedAt     time.Time
	EndReason   EndReason
	StoragePath string
	Clicks      int
	Keystrokes  int
	Windows     int
	Media       int
}

func (s StorageCapsule) Summary(storagePath string) Summary {
	return Summary{
		ID:          s.ID,
		SessionID:   s.SessionID,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
		EndReason:   s.EndReason,
		StoragePath: storagePath,
		Clicks:      len(s.MouseClicks),
		Keystrokes:  len(s.Keystrokes),
		Windows:     len(s.Windows),
		Media:       len(s.Media),
	}
}

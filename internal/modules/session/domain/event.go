package domain

import "time"

type EventKind string

const (
	EventSessionStarted   EventKind = "session_started"
	EventCapsuleStarted   EventKind = "capsule_started"
	EventCapsuleEnded     EventKind = "capsule_ended"
	EventCapsulePersisted EventKind = "capsule_persisted"
	EventCapsuleDropped   EventKind = "capsule_dropped"
	EventCapsuleFailed    EventKind = "capsule_failed"
	EventSessionEnded     EventKind = "session_ended"
)

type Event struct {
	Kind           EventKind `json:"kind"`
	SessionID      string    `json:"session_id"`
	CapsuleID      string    `json:"capsule_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	ElapsedSeconds int64     `json:"elapsed_seconds,omitempty"`
	Error          string    `json:"error,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

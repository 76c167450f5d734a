package dto

import "time"

type SessionOutput struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Running   bool      `json:"running"`
}

type StopInput struct {
	Mode string `json:"mode"`
}

type EventOutput struct {
	Kind           string    `json:"kind"`
	SessionID      string    `json:"session_id"`
	CapsuleID      string    `json:"capsule_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	ElapsedSeconds int64     `json:"elapsed_seconds,omitempty"`
	Error          string    `json:"error,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

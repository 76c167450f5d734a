package domain

import "time"

// Status is what a running daemon reports about itself.
type Status struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	Provider  string    `json:"provider"`

	SessionID        string    `json:"session_id,omitempty"`
	SessionRunning   bool      `json:"session_running"`
	SessionStartedAt time.Time `json:"session_started_at,omitempty"`

	Day          string `json:"day"`
	TodaySeconds int64  `json:"today_seconds"`
}

// ProcessRecord is left on disk for as long as a daemon process owns the
// home directory.
type ProcessRecord struct {
	PID       int       `json:"pid"`
	Provider  string    `json:"provider"`
	Home      string    `json:"home"`
	StartedAt time.Time `json:"started_at"`
}

// RuntimeStatus combines the process view with what the daemon reported, if
// it could be reached.
type RuntimeStatus struct {
	Running    bool      `json:"running"`
	PID        int       `json:"pid"`
	Provider   string    `json:"provider,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	SocketPath string    `json:"socket_path"`
	LogPath    string    `json:"log_path"`
	Reachable  bool      `json:"reachable"`
	Status     Status    `json:"status"`
}

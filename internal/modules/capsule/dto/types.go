package dto

import "time"

// OpenRequest locates a new capsule. Roots are absolute; the capsule gets its
// own subdirectory under each.
type OpenRequest struct {
	SessionID   string
	StorageRoot string
	MediaRoot   string
}

type RecordOptions struct {
	Duration     time.Duration
	EnableCamera bool
	DeviceID     string
	WebcamDelay  time.Duration
}

type CapsuleSummary struct {
	ID          string
	SessionID   string
	StartedAt   time.Time
	EndedAt     time.Time
	EndReason   string
	StoragePath string
	Clicks      int
	Keystrokes  int
	Windows     int
	Media       int
}

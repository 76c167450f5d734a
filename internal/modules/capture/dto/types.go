package dto

import "time"

type CaptureRequest struct {
	CapsuleID    string
	MediaDir     string
	Duration     time.Duration
	EnableCamera bool
	DeviceID     string
	WebcamDelay  time.Duration
}

type Artifact struct {
	Kind       string
	Path       string
	CapturedAt time.Time
}

// CaptureReport says what one scheduler run did. Skipped is set when no
// capture was attempted at all.
type CaptureReport struct {
	CapsuleID string
	Delay     time.Duration
	Skipped   bool
	Artifacts []Artifact
	Failures  []string
}

type Window struct {
	AppName string
	Title   string
}

type Device struct {
	ID   string
	Name string
}

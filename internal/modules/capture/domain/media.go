package domain

import (
	"errors"
	"time"
)

var (
	ErrPermissionDenied = errors.New("capture permission denied")
	ErrDeviceNotFound   = errors.New("capture device not found")
	ErrProviderClosed   = errors.New("capture provider closed")
)

type ArtifactKind string

const (
	ArtifactScreenshot ArtifactKind = "screenshot"
	ArtifactWebcam     ArtifactKind = "webcam"
)

const PortraitFile = "portrait.png"

// ScreenImage is one monitor's result. Err is set instead of PNG when that monitor failed.
type ScreenImage struct {
	Monitor int
	PNG     []byte
	Err     string
}

type Artifact struct {
	Kind       ArtifactKind
	Path       string
	CapturedAt time.Time
}

type Window struct {
	AppName string
	Title   string
}

type Device struct {
	ID   string
	Name string
}

type InputKind string

const (
	InputMouse    InputKind = "mouse"
	InputKeyboard InputKind = "keyboard"
)

type InputEvent struct {
	Kind InputKind
	At   time.Time
}

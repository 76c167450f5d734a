package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultCapsuleStorageDir = "capsules"
	DefaultMediaStorageDir   = "media"
	DefaultTimeGapSeconds    = 600
	MinTimeGapSeconds        = 30
)

var (
	ErrInvalidSettings = errors.New("invalid settings")
	ErrUnknownKey      = errors.New("unknown settings key")
)

type Preferences struct {
	TimeGapDurationSeconds int `yaml:"time_gap_duration_in_seconds" json:"time_gap_duration_in_seconds"`
	WebcamDelaySeconds     int `yaml:"webcam_delay" json:"webcam_delay"`
}

// Settings is the user-editable configuration. It is re-read before every
// capsule so edits apply from the next capsule on.
type Settings struct {
	CapsuleStorageDir string      `yaml:"capsule_storage_dir" json:"capsule_storage_dir"`
	MediaStorageDir   string      `yaml:"media_storage_dir" json:"media_storage_dir"`
	LaunchOnStartup   bool        `yaml:"launch_on_startup" json:"launch_on_startup"`
	SigninOnLaunch    bool        `yaml:"signin_on_launch" json:"signin_on_launch"`
	TrackOnSignin     bool        `yaml:"track_on_signin" json:"track_on_signin"`
	EnableCamera      bool        `yaml:"enable_camera" json:"enable_camera"`
	SelectedDevice    string      `yaml:"selected_device" json:"selected_device"`
	Preferences       Preferences `yaml:"preferences" json:"preferences"`
}

func Defaults() Settings {
	return Settings{
		CapsuleStorageDir: DefaultCapsuleStorageDir,
		MediaStorageDir:   DefaultMediaStorageDir,
		EnableCamera:      true,
		Preferences: Preferences{
			TimeGapDurationSeconds: DefaultTimeGapSeconds,
		},
	}
}

func (s Settings) Validate() error {
	if s.Preferences.TimeGapDurationSeconds < MinTimeGapSeconds {
		return fmt.Errorf("%w: time_gap_duration_in_seconds must be at least %d", ErrInvalidSettings, MinTimeGapSeconds)
	}
	if s.Preferences.WebcamDelaySeconds < 0 {
		return fmt.Errorf("%w: webcam_delay must be non-negative", ErrInvalidSettings)
	}
	for name, dir := range map[string]string{
		"capsule_storage_dir": s.CapsuleStorageDir,
		"media_storage_dir":   s.MediaStorageDir,
	} {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidSettings, name)
		}
		if filepath.IsAbs(dir) || strings.HasPrefix(filepath.Clean(dir), "..") {
			return fmt.Errorf("%w: %s must stay inside the data directory", ErrInvalidSettings, name)
		}
	}
	return nil
}

func (s Settings) CapsuleDuration() time.Duration {
	return time.Duration(s.Preferences.TimeGapDurationSeconds) * time.Second
}

func (s Settings) WebcamDelay() time.Duration {
	return time.Duration(s.Preferences.WebcamDelaySeconds) * time.Second
}

// Keys lists the names accepted by Set.
func Keys() []string {
	return []string{
		"capsule_storage_dir",
		"media_storage_dir",
		"launch_on_startup",
		"signin_on_launch",
		"track_on_signin",
		"enable_camera",
		"selected_device",
		"preferences.time_gap_duration_in_seconds",
		"preferences.webcam_delay",
	}
}

// Set assigns one key from its textual form and validates the result.
func (s Settings) Set(key, value string) (Settings, error) {
	value = strings.TrimSpace(value)
	var err error
	switch strings.TrimSpace(key) {
	case "capsule_storage_dir":
		s.CapsuleStorageDir = value
	case "media_storage_dir":
		s.MediaStorageDir = value
	case "launch_on_startup":
		s.LaunchOnStartup, err = strconv.ParseBool(value)
	case "signin_on_launch":
		s.SigninOnLaunch, err = strconv.ParseBool(value)
	case "track_on_signin":
		s.TrackOnSignin, err = strconv.ParseBool(value)
	case "enable_camera":
		s.EnableCamera, err = strconv.ParseBool(value)
	case "selected_device":
		s.SelectedDevice = value
	case "preferences.time_gap_duration_in_seconds", "time_gap_duration_in_seconds":
		s.Preferences.TimeGapDurationSeconds, err = strconv.Atoi(value)
	case "preferences.webcam_delay", "webcam_delay":
		s.Preferences.WebcamDelaySeconds, err = strconv.Atoi(value)
	default:
		return Settings{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, key, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

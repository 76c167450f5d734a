package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	t.Parallel()
	s := Defaults()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if s.CapsuleDuration() != 10*time.Minute {
		t.Fatalf("expected 10 minute capsules, got %s", s.CapsuleDuration())
	}
	if !s.EnableCamera || s.CapsuleStorageDir != "capsules" || s.MediaStorageDir != "media" {
		t.Fatalf("unexpected defaults %+v", s)
	}
}

func TestSetParsesAndValidates(t *testing.T) {
	t.Parallel()
	s, err := Defaults().Set("preferences.time_gap_duration_in_seconds", "120")
	if err != nil {
		t.Fatalf("set duration: %v", err)
	}
	if s.CapsuleDuration() != 2*time.Minute {
		t.Fatalf("expected 2 minutes, got %s", s.CapsuleDuration())
	}
	s, err = s.Set("enable_camera", "false")
	if err != nil || s.EnableCamera {
		t.Fatalf("expected camera disabled, got %+v, %v", s, err)
	}

	cases := []struct {
		key, value string
		want       error
	}{
		{"preferences.time_gap_duration_in_seconds", "10", ErrInvalidSettings},
		{"preferences.webcam_delay", "-1", ErrInvalidSettings},
		{"enable_camera", "maybe", ErrInvalidSettings},
		{"capsule_storage_dir", "/abs", ErrInvalidSettings},
		{"media_storage_dir", "../out", ErrInvalidSettings},
		{"capsule_storage_dir", " ", ErrInvalidSettings},
		{"nope", "1", ErrUnknownKey},
	}
	for _, tc := range cases {
		if _, err := Defaults().Set(tc.key, tc.value); !errors.Is(err, tc.want) {
			t.Fatalf("set %s=%q: expected %v, got %v", tc.key, tc.value, tc.want, err)
		}
	}
}

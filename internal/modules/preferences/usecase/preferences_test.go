package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	prefsout "worksmart/internal/modules/preferences/adapter/out"
	"worksmart/internal/modules/preferences/domain"
	"worksmart/internal/modules/preferences/usecase"
)

func TestGetReturnsDefaultsWhenFileMissing(t *testing.T) {
	t.Parallel()
	uc := usecase.NewInteractor(prefsout.NewYAMLSettingsStore(filepath.Join(t.TempDir(), "config.yaml")))
	settings, err := uc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if settings != domain.Defaults() {
		t.Fatalf("expected defaults, got %+v", settings)
	}
}

func TestSetPersistsAndPartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	uc := usecase.NewInteractor(prefsout.NewYAMLSettingsStore(path))

	if _, err := uc.Set(context.Background(), "preferences.time_gap_duration_in_seconds", "90"); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(raw), "time_gap_duration_in_seconds: 90") {
		t.Fatalf("config file missing new value:\n%s", raw)
	}

	if err := os.WriteFile(path, []byte("enable_camera: false\n"), 0o644); err != nil {
		t.Fatalf("write partial config: %v", err)
	}
	settings, err := uc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if settings.EnableCamera || settings.Preferences.TimeGapDurationSeconds != domain.DefaultTimeGapSeconds {
		t.Fatalf("expected partial override on top of defaults, got %+v", settings)
	}
}

func TestSetRejectsInvalidValuesWithoutWriting(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	uc := usecase.NewInteractor(prefsout.NewYAMLSettingsStore(path))
	if _, err := uc.Set(context.Background(), "preferences.time_gap_duration_in_seconds", "5"); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Fatalf("expected invalid settings, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("invalid set must not create the file: %v", err)
	}
}

func TestGetRejectsInvalidFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("preferences:\n  time_gap_duration_in_seconds: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	uc := usecase.NewInteractor(prefsout.NewYAMLSettingsStore(path))
	if _, err := uc.Get(context.Background()); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Fatalf("expected invalid settings, got %v", err)
	}
}

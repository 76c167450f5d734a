package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

const appName = "worksmart"

// Env holds the process settings that come from the environment.
type Env struct {
	Home             string `env:"WORKSMART_HOME"`
	LogLevel         string `env:"WORKSMART_LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"WORKSMART_LOG_FORMAT" envDefault:"text"`
	ProviderPlugin   string `env:"WORKSMART_PROVIDER"`
	TelemetryURL     string `env:"WORKSMART_OTEL_ENDPOINT"`
	TelemetryEnabled bool   `env:"WORKSMART_OTEL_ENABLED" envDefault:"true"`
}

type Config struct {
	HomeDir          string
	ConfigPath       string
	DBPath           string
	DaemonDir        string
	LogLevel         string
	LogFormat        string
	ProviderPlugin   string
	TelemetryURL     string
	TelemetryEnabled bool
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the environment and resolves every path under the home
// directory. A non-empty homeOverride wins over WORKSMART_HOME.
func Load(homeOverride string) (Config, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Config{}, err
	}
	home := homeOverride
	if home == "" {
		home = e.Home
	}
	if home == "" {
		home = defaultHome()
	}
	if home == "" {
		return Config{}, fmt.Errorf("home directory is required")
	}
	return New(home, e), nil
}

func New(home string, e Env) Config {
	return Config{
		HomeDir:          home,
		ConfigPath:       filepath.Join(home, "config.yaml"),
		DBPath:           filepath.Join(home, "capsules.db"),
		DaemonDir:        filepath.Join(home, "daemon"),
		LogLevel:         e.LogLevel,
		LogFormat:        e.LogFormat,
		ProviderPlugin:   e.ProviderPlugin,
		TelemetryURL:     e.TelemetryURL,
		TelemetryEnabled: e.TelemetryEnabled,
	}
}

func defaultHome() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(userHome, ".local", "share", appName)
}

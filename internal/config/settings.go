package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"nathanbeddoewebdev/vssplot/internal/domain"
	"nathanbeddoewebdev/vssplot/internal/retry"
)

// Built-in defaults, used when neither a flag nor a preference is set.
const (
	DefaultUpdateMS    = 200
	DefaultQueueLength = 20
)

// ErrInvalidSetting indicates a setting outside its allowed range.
var ErrInvalidSetting = errors.New("invalid setting")

// Input carries the values given on the command line. Zero values mean
// "not given" and fall back to the preferences file, then the defaults.
type Input struct {
	Path        string
	Address     string
	UpdateMS    int
	QueueLength int
	Retry       retry.Config
}

// Settings is the fully resolved configuration for a monitoring run.
type Settings struct {
	Path     string
	Endpoint domain.Endpoint
	Interval time.Duration
	Capacity int
	Retry    retry.Config
}

// Resolve merges in with prefs (which may be nil) and the built-in
// defaults, and validates the result. It fails before any sampling can
// begin on a missing or non-UTF-8 path or a malformed address. The path is
// kept exactly as given.
func Resolve(in Input, prefs *Config) (Settings, error) {
	if prefs == nil {
		prefs = &Config{}
	}

	path := in.Path
	if strings.TrimSpace(path) == "" {
		return Settings{}, domain.ErrMissingPath
	}
	if !utf8.ValidString(path) {
		return Settings{}, fmt.Errorf("%q is not valid UTF-8: %w", path, domain.ErrInvalidPath)
	}

	addr := firstNonEmpty(in.Address, prefs.DatabrokerAddress, domain.DefaultAddress)
	endpoint, err := domain.ParseEndpoint(addr)
	if err != nil {
		return Settings{}, err
	}

	updateMS := firstNonZero(in.UpdateMS, prefs.PlotUpdateMS, DefaultUpdateMS)
	if updateMS < 1 {
		return Settings{}, fmt.Errorf("plot update interval must be at least 1ms, got %d: %w", updateMS, ErrInvalidSetting)
	}

	capacity := firstNonZero(in.QueueLength, prefs.PlotQueueLength, DefaultQueueLength)
	if capacity < 1 {
		return Settings{}, fmt.Errorf("plot queue length must be at least 1, got %d: %w", capacity, ErrInvalidSetting)
	}

	rc := in.Retry
	if rc.MaxAttempts < 1 {
		return Settings{}, fmt.Errorf("retries must be at least 1, got %d: %w", rc.MaxAttempts, ErrInvalidSetting)
	}
	if rc.BaseDelay < 0 {
		return Settings{}, fmt.Errorf("backoff base must not be negative, got %v: %w", rc.BaseDelay, ErrInvalidSetting)
	}
	if rc.Factor < 1 {
		return Settings{}, fmt.Errorf("backoff factor must be at least 1, got %v: %w", rc.Factor, ErrInvalidSetting)
	}

	return Settings{
		Path:     path,
		Endpoint: endpoint,
		Interval: time.Duration(updateMS) * time.Millisecond,
		Capacity: capacity,
		Retry:    rc,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

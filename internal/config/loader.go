package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known transcription provider names.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = []string{"whisper"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout %s must not be negative", cfg.Server.ShutdownTimeout))
	}

	// Scoring
	if err := cfg.Scoring.Weights.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scoring.weights: %w", err))
	}
	if err := cfg.Scoring.Thresholds.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scoring.thresholds: %w", err))
	}
	if !cfg.Scoring.FallbackPolicy.IsValid() {
		errs = append(errs, fmt.Errorf("scoring.fallback_policy %q is invalid; valid values: coarse, basic", cfg.Scoring.FallbackPolicy))
	}

	// Practice
	p := cfg.Practice
	if p.MaxRecordings < 1 {
		errs = append(errs, fmt.Errorf("practice.max_recordings %d must be at least 1", p.MaxRecordings))
	}
	if p.MaxRecordingDuration <= 0 {
		errs = append(errs, fmt.Errorf("practice.max_recording_duration %s must be positive", p.MaxRecordingDuration))
	}
	if p.FeedbackDelay < 0 {
		errs = append(errs, fmt.Errorf("practice.feedback_delay %s must not be negative", p.FeedbackDelay))
	}
	if p.FeedbackDelay > p.MaxRecordingDuration && p.MaxRecordingDuration > 0 {
		slog.Warn("practice.feedback_delay is longer than a whole recording; learners will wait a long time for feedback",
			"feedback_delay", p.FeedbackDelay,
		)
	}
	if len(p.Tips) == 0 {
		slog.Warn("practice.tips is empty; needs-improvement feedback will carry no tip")
	}

	// Transcription
	for i, entry := range cfg.Transcription.Providers {
		prefix := fmt.Sprintf("transcription.providers[%d]", i)
		if entry.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if entry.Timeout < 0 {
			errs = append(errs, fmt.Errorf("%s.timeout %s must not be negative", prefix, entry.Timeout))
		}
		validateProviderName(entry.Name)
	}
	cb := cfg.Transcription.CircuitBreaker
	if cb.MaxFailures < 0 || cb.HalfOpenMax < 0 || cb.ResetTimeout < 0 {
		errs = append(errs, errors.New("transcription.circuit_breaker values must not be negative"))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is not in [ValidProviderNames].
func validateProviderName(name string) {
	if slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown transcription provider name; may be a typo or a provider registered by an embedding program",
		"name", name,
		"known", ValidProviderNames,
	)
}

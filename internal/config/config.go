// Package config provides the configuration schema, loader, hot-reload
// watcher and transcription provider registry for the enunciate server.
package config

import (
	"log/slog"
	"time"

	"github.com/MrWong99/enunciate/pkg/scoring"
)

// LogLevel controls log verbosity for the enunciate server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to a [slog.Level]. Unknown or empty values map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader];
// keys missing from the file keep the values of [Default].
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Scoring       ScoringConfig       `yaml:"scoring"`
	Practice      PracticeConfig      `yaml:"practice"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Hot-reloadable.
	LogLevel LogLevel `yaml:"log_level"`

	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ScoringConfig configures the scoring engine. Hot-reloadable.
type ScoringConfig struct {
	Weights        scoring.Weights        `yaml:"weights"`
	Thresholds     scoring.Thresholds     `yaml:"thresholds"`
	FallbackPolicy scoring.FallbackPolicy `yaml:"fallback_policy"`
}

// PracticeConfig controls practice sessions and feedback.
type PracticeConfig struct {
	// MaxRecordings is how many recordings a session keeps; older ones are
	// evicted. Applies to sessions created after a reload.
	MaxRecordings int `yaml:"max_recordings"`

	// MaxRecordingDuration rejects attempts longer than this.
	MaxRecordingDuration time.Duration `yaml:"max_recording_duration"`

	// FeedbackDelay postpones scoring of a captured attempt. Zero scores
	// immediately.
	FeedbackDelay time.Duration `yaml:"feedback_delay"`

	Messages Messages `yaml:"messages"`

	// Tips are shown with needs-improvement feedback, one chosen at random.
	Tips []string `yaml:"tips"`

	// HistoryPath, when set, is a JSON-lines file every delivered recording
	// is appended to. Requires a restart.
	HistoryPath string `yaml:"history_path"`
}

// Messages are the per-tier feedback texts.
type Messages struct {
	Excellent        string `yaml:"excellent"`
	Good             string `yaml:"good"`
	NeedsImprovement string `yaml:"needs_improvement"`

	// NoMatch is used when the final accuracy falls below the
	// needs_improvement threshold.
	NoMatch string `yaml:"no_match"`
}

// CatalogConfig selects the practice item catalog.
type CatalogConfig struct {
	// Path to a catalog YAML file. Empty uses the built-in catalog.
	Path string `yaml:"path"`
}

// TranscriptionConfig configures optional server-side speech recognition.
// With no providers, uploaded audio is scored without a transcript.
type TranscriptionConfig struct {
	// Language is a BCP-47 code passed to providers (e.g., "en").
	Language string `yaml:"language"`

	// Prompt is an optional fixed hint for providers that accept one. It is
	// the same for every attempt; the practice text is never sent.
	Prompt string `yaml:"prompt"`

	// Providers are tried in order; the first success wins.
	Providers []ProviderEntry `yaml:"providers"`

	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig tunes the per-provider circuit breaker.
type CircuitBreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
	HalfOpenMax  int           `yaml:"half_open_max"`
}

// ProviderEntry is the configuration block of one transcription provider.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "whisper").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL is the provider's endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`

	// Timeout bounds a single transcription request.
	Timeout time.Duration `yaml:"timeout"`

	// Options holds provider-specific values not covered above.
	Options map[string]any `yaml:"options"`
}

// TelemetryConfig controls metrics export.
type TelemetryConfig struct {
	// ServiceName is reported as the OpenTelemetry service.name.
	ServiceName string `yaml:"service_name"`

	// MetricsPath is where Prometheus metrics are served. Empty disables
	// the endpoint.
	MetricsPath string `yaml:"metrics_path"`
}

// Default returns the configuration used when no file is given and the base
// onto which config files are decoded.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			LogLevel:        LogInfo,
			ShutdownTimeout: 10 * time.Second,
		},
		Scoring: ScoringConfig{
			Weights:        scoring.DefaultWeights(),
			Thresholds:     scoring.DefaultThresholds(),
			FallbackPolicy: scoring.FallbackCoarse,
		},
		Practice: PracticeConfig{
			MaxRecordings:        3,
			MaxRecordingDuration: 10 * time.Second,
			FeedbackDelay:        time.Second,
			Messages: Messages{
				Excellent:        "Excellent pronunciation! You're doing great!",
				Good:             "Good job! Your pronunciation is quite good with minor areas for improvement.",
				NeedsImprovement: "Keep practicing! Focus on the highlighted sounds for better pronunciation.",
				NoMatch:          "Unable to process your recording. Please try again and speak more clearly.",
			},
			Tips: []string{
				"Speak clearly and at a moderate pace",
				"Position your mouth close to the microphone",
				"Practice in a quiet environment",
				"Listen to the correct pronunciation multiple times",
				"Focus on individual sounds within words",
				"Record yourself multiple times for comparison",
				"Pay attention to stress patterns in words",
				"Use the phonetic transcription as a guide",
			},
		},
		Transcription: TranscriptionConfig{
			Language: "en",
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures:  5,
				ResetTimeout: 30 * time.Second,
				HalfOpenMax:  3,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName: "enunciate",
			MetricsPath: "/metrics",
		},
	}
}

// EngineOptions translates the scoring section into [scoring.Option] values.
func (c ScoringConfig) EngineOptions() []scoring.Option {
	return []scoring.Option{
		scoring.WithWeights(c.Weights),
		scoring.WithThresholds(c.Thresholds),
		scoring.WithFallbackPolicy(c.FallbackPolicy),
	}
}

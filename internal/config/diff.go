package config

import (
	"reflect"
	"slices"
)

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	// ScoringChanged is true when weights, thresholds or fallback policy
	// changed. The scoring engine must be rebuilt.
	ScoringChanged bool

	// PracticeChanged is true when any practice setting changed.
	PracticeChanged bool

	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired lists changed keys that only take effect after a
	// restart, such as the listener address or the catalog path.
	RestartRequired []string
}

// HasHotChanges reports whether d contains anything that can be applied
// without a restart.
func (d ConfigDiff) HasHotChanges() bool {
	return d.ScoringChanged || d.PracticeChanged || d.LogLevelChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Scoring != new.Scoring {
		d.ScoringChanged = true
	}

	if !practiceEqual(old.Practice, new.Practice) {
		d.PracticeChanged = true
	}

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if old.Practice.HistoryPath != new.Practice.HistoryPath {
		d.RestartRequired = append(d.RestartRequired, "practice.history_path")
	}
	if old.Catalog != new.Catalog {
		d.RestartRequired = append(d.RestartRequired, "catalog.path")
	}
	if !reflect.DeepEqual(old.Transcription, new.Transcription) {
		d.RestartRequired = append(d.RestartRequired, "transcription")
	}
	if old.Telemetry != new.Telemetry {
		d.RestartRequired = append(d.RestartRequired, "telemetry")
	}

	return d
}

func practiceEqual(a, b PracticeConfig) bool {
	return a.MaxRecordings == b.MaxRecordings &&
		a.MaxRecordingDuration == b.MaxRecordingDuration &&
		a.FeedbackDelay == b.FeedbackDelay &&
		a.Messages == b.Messages &&
		slices.Equal(a.Tips, b.Tips)
}

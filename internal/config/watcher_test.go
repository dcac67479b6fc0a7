package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrWong99/enunciate/internal/config"
)

const (
	watchValidYAML = `
server:
  log_level: info
scoring:
  thresholds:
    excellent: 85
    good: 70
    needs_improvement: 50
`
	watchUpdatedYAML = `
server:
  log_level: debug
scoring:
  thresholds:
    excellent: 90
    good: 70
    needs_improvement: 50
`
	watchInvalidYAML = `
server:
  log_level: bananas
`
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// startWatcher creates a watcher with a short interval, runs its poll loop
// and stops it when the test ends.
func startWatcher(t *testing.T, path string, onChange func(old, new *config.Config)) *config.Watcher {
	t.Helper()
	w, err := config.NewWatcher(path, onChange, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	go w.Start()
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, watchValidYAML)

	w := startWatcher(t, path, nil)
	if got := w.Current().Scoring.Thresholds.Excellent; got != 85 {
		t.Errorf("Current().Scoring.Thresholds.Excellent = %d, want 85", got)
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, watchInvalidYAML)

	if _, err := config.NewWatcher(path, nil); err == nil {
		t.Fatal("expected error for invalid initial config, got nil")
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, watchValidYAML)

	type change struct{ old, new *config.Config }
	changes := make(chan change, 1)
	w := startWatcher(t, path, func(old, new *config.Config) {
		changes <- change{old, new}
	})

	// Ensure the new mtime differs on filesystems with coarse timestamps.
	time.Sleep(20 * time.Millisecond)
	writeFile(t, path, watchUpdatedYAML)

	select {
	case c := <-changes:
		if c.old.Server.LogLevel != config.LogInfo {
			t.Errorf("old log level = %q, want info", c.old.Server.LogLevel)
		}
		if c.new.Server.LogLevel != config.LogDebug {
			t.Errorf("new log level = %q, want debug", c.new.Server.LogLevel)
		}
		d := config.Diff(c.old, c.new)
		if !d.ScoringChanged || !d.LogLevelChanged {
			t.Errorf("Diff = %+v, want scoring and log level changes", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}

	if w.Current().Scoring.Thresholds.Excellent != 90 {
		t.Errorf("Current() not updated after change")
	}
}

func TestWatcher_InvalidEditKeepsPrevious(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, watchValidYAML)

	called := make(chan struct{}, 1)
	w := startWatcher(t, path, func(_, _ *config.Config) {
		called <- struct{}{}
	})

	time.Sleep(20 * time.Millisecond)
	writeFile(t, path, watchInvalidYAML)

	select {
	case <-called:
		t.Fatal("callback fired for an invalid config")
	case <-time.After(300 * time.Millisecond):
	}
	if w.Current().Server.LogLevel != config.LogInfo {
		t.Errorf("Current().Server.LogLevel = %q, want info", w.Current().Server.LogLevel)
	}
}

func TestWatcher_TouchWithoutChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, watchValidYAML)

	called := make(chan struct{}, 1)
	startWatcher(t, path, func(_, _ *config.Config) {
		called <- struct{}{}
	})

	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	select {
	case <-called:
		t.Fatal("callback fired although content is unchanged")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, watchValidYAML)

	w, err := config.NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()
	w.Stop()
	w.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

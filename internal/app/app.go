// Package app wires all enunciate subsystems into a running HTTP server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP and follows config changes until its context
// ends, and Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithCatalog,
// WithRegistry, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/enunciate/internal/api"
	"github.com/MrWong99/enunciate/internal/catalog"
	"github.com/MrWong99/enunciate/internal/config"
	"github.com/MrWong99/enunciate/internal/health"
	"github.com/MrWong99/enunciate/internal/history"
	"github.com/MrWong99/enunciate/internal/observe"
	"github.com/MrWong99/enunciate/internal/practice"
	"github.com/MrWong99/enunciate/internal/resilience"
	"github.com/MrWong99/enunciate/pkg/provider/stt"
)

// App owns all subsystem lifetimes and serves the enunciate HTTP API.
type App struct {
	cfg        *config.Config
	configPath string
	logLevel   *slog.LevelVar

	// Subsystems, initialised in New and torn down in Shutdown.
	catalog     catalog.Store
	registry    *config.Registry
	metrics     *observe.Metrics
	telemetry   *observe.Telemetry
	engine      *engineHolder
	manager     *practice.Manager
	coach       *practice.Coach
	journal     *history.FileStore
	transcriber stt.Provider
	handler     http.Handler
	watcher     *config.Watcher
	watcherOpts []config.WatcherOption

	listenerMu sync.Mutex
	listener   net.Listener

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithCatalog injects an item store instead of opening catalog.path.
func WithCatalog(s catalog.Store) Option {
	return func(a *App) { a.catalog = s }
}

// WithRegistry replaces the built-in transcription provider registry.
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithMetrics injects the metric instruments instead of using
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithTelemetry takes metrics, the /metrics registry and request spans from
// t. It overrides [WithMetrics].
func WithTelemetry(t *observe.Telemetry) Option {
	return func(a *App) { a.telemetry = t }
}

// WithConfigPath enables hot reload: Run polls path and applies changes.
func WithConfigPath(path string) Option {
	return func(a *App) { a.configPath = path }
}

// WithLogLevel lets reloads change the level of the process logger.
func WithLogLevel(v *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = v }
}

// WithWatcherOptions is applied to the config watcher created for
// [WithConfigPath].
func WithWatcherOptions(opts ...config.WatcherOption) Option {
	return func(a *App) {
		a.watcherOpts = append(a.watcherOpts, opts...)
	}
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together.
//
// New performs all initialisation synchronously: catalog loading, engine
// construction, transcription provider creation and HTTP routing. Nothing
// listens until [App.Run].
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.registry == nil {
		a.registry = NewRegistry()
	}
	switch {
	case a.telemetry != nil:
		a.metrics = a.telemetry.Metrics()
	case a.metrics == nil:
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Catalog ───────────────────────────────────────────────────────
	if err := a.initCatalog(ctx); err != nil {
		return nil, fmt.Errorf("app: init catalog: %w", err)
	}

	// ── 2. Scoring engine ────────────────────────────────────────────────
	engine, err := newEngineHolder(cfg.Scoring, a.metrics)
	if err != nil {
		return nil, fmt.Errorf("app: init scoring engine: %w", err)
	}
	a.engine = engine

	// ── 3. Practice sessions ─────────────────────────────────────────────
	a.initPractice()

	// ── 4. Transcription ─────────────────────────────────────────────────
	if err := a.initTranscription(); err != nil {
		return nil, fmt.Errorf("app: init transcription: %w", err)
	}

	// ── 5. HTTP routes ───────────────────────────────────────────────────
	a.initHTTP()

	// ── 6. Config watcher ────────────────────────────────────────────────
	if a.configPath != "" {
		w, err := config.NewWatcher(a.configPath, a.Reload, a.watcherOpts...)
		if err != nil {
			return nil, fmt.Errorf("app: init config watcher: %w", err)
		}
		a.watcher = w
	}

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initCatalog opens catalog.path, or the built-in catalog when it is empty.
func (a *App) initCatalog(ctx context.Context) error {
	if a.catalog != nil {
		return nil
	}
	store, err := catalog.Open(ctx, a.cfg.Catalog.Path)
	if err != nil {
		return err
	}
	slog.Info("catalog loaded", "path", a.cfg.Catalog.Path, "items", store.Len())
	a.catalog = store
	return nil
}

// initPractice creates the session manager, the optional history journal and
// the coach.
func (a *App) initPractice() {
	p := a.cfg.Practice
	a.manager = practice.NewManager(p.MaxRecordings, practice.WithManagerMetrics(a.metrics))

	opts := []practice.CoachOption{practice.WithCoachMetrics(a.metrics)}
	if p.HistoryPath != "" {
		a.journal = history.NewFileStore(p.HistoryPath)
		opts = append(opts, practice.WithJournal(a.journal))
		slog.Info("practice history enabled", "path", p.HistoryPath)
	}
	a.coach = practice.NewCoach(a.manager, a.engine, p, opts...)

	a.closers = append(a.closers,
		func() error { a.coach.Close(); return nil },
		func() error { a.manager.CloseAll(context.Background()); return nil },
	)
}

// initTranscription builds a failover transcriber from the configured
// providers, in order. With none configured uploads are scored without a
// transcript.
func (a *App) initTranscription() error {
	tc := a.cfg.Transcription
	if len(tc.Providers) == 0 {
		slog.Info("no transcription providers configured; audio uploads are scored from metadata only")
		return nil
	}

	fallbackCfg := resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  tc.CircuitBreaker.MaxFailures,
			ResetTimeout: tc.CircuitBreaker.ResetTimeout,
			HalfOpenMax:  tc.CircuitBreaker.HalfOpenMax,
		},
	}

	var t *resilience.Transcriber
	for i, entry := range tc.Providers {
		p, err := a.registry.CreateSTT(entry)
		if err != nil {
			return fmt.Errorf("create stt provider %q (index %d): %w", entry.Name, i, err)
		}
		name := providerName(entry, i)
		if t == nil {
			t = resilience.NewTranscriber(p, name, fallbackCfg, resilience.WithMetrics(a.metrics))
		} else {
			t.AddFallback(name, p)
		}
		slog.Info("provider created", "kind", "stt", "name", name, "model", entry.Model)
	}
	a.transcriber = t
	return nil
}

// providerName labels a provider for breakers, logs and metrics. Fallbacks
// get their position appended so a repeated name stays distinct.
func providerName(entry config.ProviderEntry, index int) string {
	if index == 0 {
		return entry.Name
	}
	return fmt.Sprintf("%s#%d", entry.Name, index)
}

// initHTTP builds the routed, instrumented handler.
func (a *App) initHTTP() {
	mux := http.NewServeMux()

	api.New(api.Config{
		Catalog:     a.catalog,
		Scorer:      a.engine,
		Manager:     a.manager,
		Coach:       a.coach,
		Transcriber: a.transcriber,
		Language:    a.cfg.Transcription.Language,
		Prompt:      a.cfg.Transcription.Prompt,
		Metrics:     a.metrics,
	}).Register(mux)

	health.New(a.checkers()...).Register(mux)

	var mwOpts []observe.MiddlewareOption
	metricsHandler := promhttp.Handler()
	if a.telemetry != nil {
		metricsHandler = a.telemetry.Handler()
		mwOpts = append(mwOpts, observe.WithTracerProvider(a.telemetry.TracerProvider()))
	}
	if path := a.cfg.Telemetry.MetricsPath; path != "" {
		mux.Handle("GET "+path, metricsHandler)
	}

	a.handler = observe.Middleware(a.metrics, mwOpts...)(mux)
}

// checkers returns the readiness checks. The catalog is required; a
// transcriber whose backends are all tripped only degrades the service.
func (a *App) checkers() []health.Checker {
	cs := []health.Checker{{
		Name: "catalog",
		Check: func(ctx context.Context) error {
			items, err := a.catalog.List(ctx, catalog.ListOptions{})
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return catalog.ErrEmpty
			}
			return nil
		},
	}}
	if c, ok := a.transcriber.(interface{ Check(context.Context) error }); ok {
		cs = append(cs, health.Checker{Name: "transcription", Check: c.Check, Optional: true})
	}
	return cs
}

// Handler returns the application's HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Addr returns the address Run is listening on, or nil before it listens.
func (a *App) Addr() net.Addr {
	a.listenerMu.Lock()
	defer a.listenerMu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP on server.listen_addr and, when a config path was given,
// polls it for changes. It blocks until ctx is cancelled or the server
// fails, then drains in-flight requests for up to server.shutdown_timeout.
// A cancelled ctx is a clean stop and returns nil.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	a.listenerMu.Lock()
	a.listener = ln
	a.listenerMu.Unlock()

	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := a.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: http shutdown: %w", err)
		}
		return nil
	})
	if a.watcher != nil {
		g.Go(func() error {
			a.watcher.Start()
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			a.watcher.Stop()
			return nil
		})
	}

	slog.Info("app running", "addr", ln.Addr().String(), "hot_reload", a.watcher != nil)
	return g.Wait()
}

// Reload applies the hot-reloadable parts of new: log level, scoring
// engine and practice settings. Keys that need a restart are logged. It is
// the config watcher's callback and may also be called directly.
func (a *App) Reload(old, new *config.Config) {
	d := config.Diff(old, new)

	if d.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(d.NewLogLevel.Level())
		slog.Info("config reload: log level changed", "level", d.NewLogLevel)
	}
	if d.ScoringChanged {
		if err := a.engine.rebuild(new.Scoring); err != nil {
			slog.Error("config reload: scoring engine rejected, keeping the previous one", "err", err)
		} else {
			slog.Info("config reload: scoring engine replaced",
				"weights", new.Scoring.Weights,
				"thresholds", new.Scoring.Thresholds,
				"fallback_policy", new.Scoring.FallbackPolicy,
			)
		}
	}
	if d.PracticeChanged {
		a.coach.SetConfig(new.Practice)
		slog.Info("config reload: practice settings applied")
	}
	for _, key := range d.RestartRequired {
		slog.Warn("config reload: change takes effect after restart", "key", key)
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if a.watcher != nil {
			a.watcher.Stop()
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

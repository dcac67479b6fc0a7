package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/enunciate/internal/app"
	"github.com/MrWong99/enunciate/internal/config"
	"github.com/MrWong99/enunciate/internal/observe"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP practice server",
	Long: "Run the HTTP practice server. The config file is polled for changes; " +
		"scoring, practice and log level settings apply without a restart.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	var level slog.LevelVar
	level.Set(cfg.Server.LogLevel.Level())
	slog.SetDefault(newLogger(&level))

	slog.Info("enunciate starting",
		"config", path,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"version", version,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	tel, err := observe.Setup(ctx, observe.ServiceInfo{Name: cfg.Telemetry.ServiceName, Version: version})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	tel.Install()

	opts := []app.Option{app.WithLogLevel(&level), app.WithTelemetry(tel)}
	if path != "" {
		opts = append(opts, app.WithConfigPath(path))
	}
	application, err := app.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	printStartupSummary(cmd.OutOrStdout(), cfg, path)

	runErr := application.Run(ctx)
	if runErr != nil {
		slog.Error("run error", "err", runErr)
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("stopping")
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return runErr
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(w io.Writer, cfg *config.Config, path string) {
	fmt.Fprintln(w, "╔═══════════════════════════════════════╗")
	fmt.Fprintln(w, "║        enunciate: startup summary     ║")
	fmt.Fprintln(w, "╠═══════════════════════════════════════╣")
	printRow(w, "Config", orNone(path, "(defaults)"))
	printRow(w, "Listen addr", cfg.Server.ListenAddr)
	printRow(w, "Catalog", orNone(cfg.Catalog.Path, "(built-in)"))
	printRow(w, "Fallback", string(cfg.Scoring.FallbackPolicy))
	printRow(w, "Feedback delay", cfg.Practice.FeedbackDelay.String())
	stt := "(not configured)"
	if n := len(cfg.Transcription.Providers); n > 0 {
		stt = fmt.Sprintf("%s (+%d fallback)", cfg.Transcription.Providers[0].Name, n-1)
	}
	printRow(w, "STT", stt)
	printRow(w, "History", orNone(cfg.Practice.HistoryPath, "(disabled)"))
	printRow(w, "Metrics", orNone(cfg.Telemetry.MetricsPath, "(disabled)"))
	fmt.Fprintln(w, "╚═══════════════════════════════════════╝")
}

func printRow(w io.Writer, label, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Fprintf(w, "║  %-14s  : %-19s ║\n", label, value)
}

func orNone(v, none string) string {
	if v == "" {
		return none
	}
	return v
}

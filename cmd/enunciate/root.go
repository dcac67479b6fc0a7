package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/enunciate/internal/config"
)

const defaultConfigPath = "config.yaml"

var rootCmd = &cobra.Command{
	Use:           "enunciate",
	Short:         "Pronunciation scoring engine",
	Long:          "enunciate scores spoken attempts at words and phrases and serves practice sessions over HTTP.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", defaultConfigPath, "path to the YAML configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the file named by --config. When the flag was left at
// its default and the file does not exist, the built-in defaults are used
// and the returned path is empty.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	switch {
	case err == nil:
		return cfg, path, nil
	case errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config"):
		slog.Debug("no config file, using defaults", "path", path)
		return config.Default(), "", nil
	case errors.Is(err, os.ErrNotExist):
		return nil, "", fmt.Errorf("config file %q not found; copy configs/example.yaml to get started", path)
	default:
		return nil, "", err
	}
}

// newLogger returns a text logger on stderr whose level follows lvl.
func newLogger(lvl *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

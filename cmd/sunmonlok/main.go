package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sunmonlok/sunmonlok/internal/config"
)

var (
	version    = "dev"
	debugMode  bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "sunmonlok",
	Short: "Tell Sunshine clients which monitor to stream based on the host pointer",
	Long: `sunmonlok watches the mouse pointer on a Sunshine streaming host and tells
connected clients which Sunshine monitor index the pointer is on.

The host runs "sunmonlok daemon". Each client runs "sunmonlok client --host HOST",
which turns every received index into a hotkey press (or a command).`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $SUNMONLOK_CONFIG or ~/.config/sunmonlok/config.yaml)")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(clientCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mappingCmd)
	rootCmd.AddCommand(monitorsCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
}

// loadConfig loads the file named by --config, or the default location.
func loadConfig() (*config.LoadResult, error) {
	path := configPath
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return config.LoadFromPath(path)
}

// setupLogger installs a text slog handler on stderr as the default logger.
func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sunmonlok/sunmonlok/internal/daemon"
)

var (
	daemonBind    string
	daemonPort    int
	daemonBackend string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the host server",
	Long: `Run the host server: poll the pointer, map it to a Sunshine monitor index
and broadcast index changes to every connected client.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := res.Config
		if cmd.Flags().Changed("bind") {
			cfg.ServerBind = daemonBind
		}
		if cmd.Flags().Changed("port") {
			cfg.ServerPort = daemonPort
		}
		if cmd.Flags().Changed("backend") {
			cfg.Backend = daemonBackend
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := setupLogger(debugMode || cfg.Debug)
		if res.Loaded {
			logger.Info("configuration loaded", "path", res.Path)
		} else {
			logger.Info("no configuration file, using defaults", "path", res.Path)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d, err := daemon.New(ctx, daemon.Options{Config: cfg, Logger: logger})
		if err != nil {
			return err
		}
		logger.Info("sunmonlok daemon starting", "version", version, "addr", cfg.ServerAddress())
		if err := d.Run(ctx); err != nil {
			return err
		}
		logger.Info("sunmonlok daemon stopped")
		return nil
	},
}

func init() {
	daemonCmd.Flags().StringVar(&daemonBind, "bind", "", "Bind address (overrides server_bind)")
	daemonCmd.Flags().IntVar(&daemonPort, "port", 0, "TCP port (overrides server_port)")
	daemonCmd.Flags().StringVar(&daemonBackend, "backend", "", "Compositor backend: auto, hyprland or x11")
}

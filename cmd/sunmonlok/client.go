package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sunmonlok/sunmonlok/internal/client"
	"github.com/sunmonlok/sunmonlok/internal/config"
	"github.com/sunmonlok/sunmonlok/internal/keystroke"
)

var (
	clientHost   string
	clientPort   int
	clientAction string
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Connect to a host and react to monitor switches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := res.Config
		if cmd.Flags().Changed("host") {
			cfg.Client.Host = clientHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Client.Port = clientPort
		}
		if cmd.Flags().Changed("action") {
			cfg.Client.Action = clientAction
		}
		if cfg.Client.Host == "" {
			return errors.New("no host given: pass --host or set client.host")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := setupLogger(debugMode || cfg.Debug)
		action, err := newAction(cfg.Client, logger)
		if err != nil {
			return err
		}
		defer action.Close()
		logger.Info("sunmonlok client starting", "server", cfg.ClientAddress(), "action", action.Name())

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := client.New(client.Config{
			Address:        cfg.ClientAddress(),
			ReconnectDelay: cfg.Client.ReconnectDelay,
			Logger:         logger,
		}, action)
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func newAction(cfg config.ClientConfig, logger *slog.Logger) (keystroke.Action, error) {
	switch cfg.Action {
	case config.ActionLog:
		return &keystroke.LogAction{Modifiers: cfg.Modifiers, Keys: cfg.Keys, Logger: logger}, nil
	case config.ActionCommand:
		return &keystroke.CommandAction{Argv: cfg.Command, Keys: cfg.Keys}, nil
	case config.ActionX11:
		a, err := keystroke.NewX11Action(cfg.Modifiers, cfg.Keys)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown client action %q", cfg.Action)
	}
}

func init() {
	clientCmd.Flags().StringVar(&clientHost, "host", "", "Host running the sunmonlok daemon")
	clientCmd.Flags().IntVar(&clientPort, "port", 0, "Host TCP port (overrides client.port)")
	clientCmd.Flags().StringVar(&clientAction, "action", "", "Action per event: log, command or x11")
}

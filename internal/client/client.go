// Package client receives target indices from a sunmonlok server and acts
// on them.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/sunmonlok/sunmonlok/internal/protocol"
)

// Action reacts to a received index.
type Action interface {
	Switch(ctx context.Context, index int) error
}

// Dialer opens the transport to the server.
type Dialer func(ctx context.Context, network, address string) (net.Conn, error)

type Config struct {
	Address        string
	ReconnectDelay time.Duration
	ReadTimeout    time.Duration
	Logger         *slog.Logger
	Dial           Dialer
}

// Client keeps a connection to the server open and applies every event to
// its action, reconnecting after failures.
type Client struct {
	address string
	delay   time.Duration
	timeout time.Duration
	logger  *slog.Logger
	dial    Dialer
	action  Action
}

func New(cfg Config, action Action) *Client {
	c := &Client{
		address: cfg.Address,
		delay:   cfg.ReconnectDelay,
		timeout: cfg.ReadTimeout,
		logger:  cfg.Logger,
		dial:    cfg.Dial,
		action:  action,
	}
	if c.delay <= 0 {
		c.delay = 5 * time.Second
	}
	if c.timeout <= 0 {
		c.timeout = time.Second
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.dial == nil {
		d := &net.Dialer{Timeout: 5 * time.Second}
		c.dial = d.DialContext
	}
	return c
}

// Run connects and serves until ctx is cancelled. It only returns ctx's
// error.
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, err := c.dial(ctx, "tcp", c.address)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("failed to connect", "addr", c.address, "error", err, "retry_in", c.delay)
		} else {
			c.logger.Info("connected", "addr", c.address)
			err = c.serve(ctx, conn)
			conn.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("connection lost", "addr", c.address, "error", err, "retry_in", c.delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.delay):
		}
	}
}

func (c *Client) serve(ctx context.Context, conn net.Conn) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	buf := make([]byte, 1)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return err
		}
		_, err := conn.Read(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("server closed connection")
			}
			return err
		}

		index, err := protocol.Decode(buf[0])
		if err != nil {
			c.logger.Warn("ignoring invalid event", "error", err)
			continue
		}
		c.logger.Info("switch received", "index", index)
		if err := c.action.Switch(ctx, index); err != nil {
			c.logger.Warn("action failed", "index", index, "error", err)
		}
	}
}

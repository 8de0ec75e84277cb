package client

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"
)

type recordingAction struct {
	mu  sync.Mutex
	got []int
	ch  chan int
}

func (r *recordingAction) Switch(_ context.Context, index int) error {
	r.mu.Lock()
	r.got = append(r.got, index)
	r.mu.Unlock()
	r.ch <- index
	return nil
}

func expectIndex(t *testing.T, ch <-chan int, want int) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("got index %d, want %d", got, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for index %d", want)
	}
}

func TestClient_ReceivesAndReconnects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	action := &recordingAction{ch: make(chan int, 8)}
	c := New(Config{
		Address:        ln.Addr().String(),
		ReconnectDelay: 10 * time.Millisecond,
		ReadTimeout:    20 * time.Millisecond,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, action)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	first, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	// 0xFF is out of range and must be skipped.
	if _, err := first.Write([]byte{3, 0xFF}); err != nil {
		t.Fatalf("write: %v", err)
	}
	expectIndex(t, action.ch, 3)
	time.Sleep(50 * time.Millisecond)
	first.Close()

	second, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept after reconnect: %v", err)
	}
	defer second.Close()
	if _, err := second.Write([]byte{5}); err != nil {
		t.Fatalf("write: %v", err)
	}
	expectIndex(t, action.ch, 5)

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	action.mu.Lock()
	defer action.mu.Unlock()
	if len(action.got) != 2 {
		t.Fatalf("expected exactly two actions, got %v", action.got)
	}
}

func TestClient_RetriesWhenServerDown(t *testing.T) {
	attempts := 0
	var mu sync.Mutex
	c := New(Config{
		Address:        "127.0.0.1:1",
		ReconnectDelay: 5 * time.Millisecond,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			mu.Lock()
			attempts++
			mu.Unlock()
			return nil, &net.OpError{Op: "dial", Net: network, Err: io.ErrUnexpectedEOF}
		},
	}, &recordingAction{ch: make(chan int, 1)})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if attempts < 2 {
		t.Fatalf("expected repeated dial attempts, got %d", attempts)
	}
}

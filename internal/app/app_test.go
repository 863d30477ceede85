package app

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/sandeepkv93/secure-forum-backend/internal/config"
	"github.com/sandeepkv93/secure-forum-backend/internal/health"
	"github.com/sandeepkv93/secure-forum-backend/internal/jobs"
)

func TestNewAssignsDependenciesAndTimeouts(t *testing.T) {
	cfg := &config.Config{
		ShutdownTimeout:          10 * time.Second,
		ShutdownHTTPDrainTimeout: 2 * time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := &http.Server{Addr: ":8080", ReadHeaderTimeout: time.Second}
	readiness := health.NewCheckRunner(100*time.Millisecond, 50*time.Millisecond)
	scheduler, err := jobs.NewScheduler(logger)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	a := New(cfg, logger, server, nil, nil, readiness, scheduler)
	if a.Config != cfg || a.Logger != logger || a.Server != server || a.Readiness != readiness || a.Jobs != scheduler {
		t.Fatal("expected app dependencies to be assigned")
	}
	if a.ShutdownTimeout != cfg.ShutdownTimeout || a.ShutdownHTTPDrainTimeout != cfg.ShutdownHTTPDrainTimeout {
		t.Fatal("expected app shutdown timeouts copied from config")
	}
}

func TestShutdownWithoutServerIsNoop(t *testing.T) {
	a := New(&config.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil, nil, nil, nil)
	if err := a.Shutdown(t.Context()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	cfg := &config.Config{ShutdownTimeout: 2 * time.Second, ShutdownHTTPDrainTimeout: time.Second}
	server := &http.Server{Addr: addr, Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	a := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), server, nil, nil, nil, nil)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			_ = conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never started: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	if conn, err := net.Dial("tcp", addr); err == nil {
		_ = conn.Close()
		t.Fatal("expected listener to be closed after shutdown")
	}
}

// Command voxrelay-server runs the relay: a control-channel listener that
// pairs two endpoints, a datagram forwarder that relays audio between
// them, a heartbeat sweeper, and an optional read-only diagnostics
// HTTP surface. It takes no required arguments.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"voxrelay/internal/registry"
	"voxrelay/internal/relay"
)

func main() {
	controlAddr := flag.String("control-addr", ":8888", "control-channel (TCP) listen address")
	audioAddr := flag.String("audio-addr", ":9999", "audio datagram (UDP) listen address")
	statusAddr := flag.String("status-addr", ":8889", "diagnostics HTTP listen address (empty disables it)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	log := newLogger(*logLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := registry.New(log)

	control := relay.NewControlServer(reg, log)
	forwarder := relay.NewForwarder(reg, log)

	errCh := make(chan error, 3)

	go func() {
		errCh <- control.Run(ctx, *controlAddr)
	}()
	go func() {
		errCh <- forwarder.Run(ctx, *audioAddr)
	}()
	go relay.RunSweeper(ctx, reg)

	if *statusAddr != "" {
		diag := relay.NewDiagnostics(reg)
		go func() {
			errCh <- diag.Run(ctx, *statusAddr)
		}()
	}

	log.Info("relay started", "control_addr", *controlAddr, "audio_addr", *audioAddr, "status_addr", *statusAddr)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("relay component failed", "error", err)
			stop()
			os.Exit(1)
		}
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// Command voxrelay-client runs one end of a two-party voice call: it
// registers with a relay, then captures, sends, receives, and plays back
// audio until the user quits or the session is torn down.
//
// Usage: voxrelay-client [flags] server_ip udp_port target_ip
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"voxrelay/internal/audiodevice"
	"voxrelay/internal/client"
)

func main() {
	os.Exit(run())
}

func run() int {
	jitterSize := flag.Int("jitter-size", 4, "jitter buffer capacity in packets (1-8)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	log := newLogger(*logLevel)
	slog.SetDefault(log)

	args := flag.Args()
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: voxrelay-client [flags] server_ip udp_port target_ip")
		return 1
	}

	serverIP := args[0]
	udpPort, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid udp_port %q: %v\n", args[1], err)
		return 1
	}
	targetIP := args[2]

	capturer, err := audiodevice.NewCapturer()
	if err != nil {
		log.Error("open capture device", "error", err)
		return 1
	}
	player, err := audiodevice.NewPlayer()
	if err != nil {
		log.Error("open playback device", "error", err)
		return 1
	}

	sess, err := client.NewSession(client.Config{
		ServerIP:   serverIP,
		UDPPort:    udpPort,
		TargetIP:   targetIP,
		JitterSize: *jitterSize,
		Log:        log,
	}, capturer, player)
	if err != nil {
		log.Error("session startup failed", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watchQuitCommand(stop)

	sess.Run(ctx, capturer)
	sess.Shutdown()
	capturer.Close()
	player.Close()

	return 0
}

// watchQuitCommand reads stdin lines and triggers stop when the user types
// "quit", mirroring the interactive shutdown described in the CLI surface.
func watchQuitCommand(stop context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if scanner.Text() == "quit" {
			stop()
			return
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

package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"voxrelay/internal/audiodevice"
	"voxrelay/internal/jitter"
	"voxrelay/internal/wire"
)

// Config holds everything a Session needs to run one voice call.
type Config struct {
	ServerIP   string
	UDPPort    int
	TargetIP   string
	JitterSize int
	Log        *slog.Logger
}

// Session owns one client voice call end to end: handshake, send pipeline,
// receive + jitter buffer, playback, and heartbeat.
type Session struct {
	cfg Config
	log *slog.Logger

	controlAddr string
	audioConn   *net.UDPConn

	sender    *Sender
	receiver  *Receiver
	playback  *Playback
	jitterMu  sync.Mutex
	jitterBuf *jitter.Buffer

	running atomic.Bool
}

// NewSession validates cfg, performs the initial handshake, and binds the
// client's datagram socket. It returns an error (no partial startup) if
// the handshake fails after wire.HandshakeRetries attempts.
func NewSession(cfg Config, capturer audiodevice.Capturer, player audiodevice.Player) (*Session, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	if cfg.JitterSize <= 0 {
		cfg.JitterSize = jitter.DefaultSize
	}

	controlAddr := net.JoinHostPort(cfg.ServerIP, strconv.Itoa(wire.ControlPort))
	if err := Handshake(controlAddr, cfg.UDPPort, cfg.TargetIP, log); err != nil {
		return nil, err
	}

	localAddr := &net.UDPAddr{IP: net.IPv4zero, Port: cfg.UDPPort}
	relayAudioAddr := &net.UDPAddr{IP: net.ParseIP(cfg.ServerIP), Port: wire.AudioPort}
	conn, err := net.DialUDP("udp", localAddr, relayAudioAddr)
	if err != nil {
		return nil, fmt.Errorf("client: bind audio socket: %w", err)
	}

	s := &Session{
		cfg:         cfg,
		log:         log,
		controlAddr: controlAddr,
		audioConn:   conn,
		jitterBuf:   jitter.New(cfg.JitterSize),
	}

	s.sender = NewSender(conn, log)
	s.receiver = NewReceiver(conn, cfg.ServerIP, s.jitterBuf, &s.jitterMu, log)
	s.playback = NewPlayback(player, s.jitterBuf, &s.jitterMu, s.receiver)

	capturer.Start(s.sender.OnFrame)
	s.running.Store(true)

	return s, nil
}

// Run starts the receive loop, playback loop, and heartbeat goroutine,
// blocking until ctx is canceled, EOT is observed, or the heartbeat fails.
func (s *Session) Run(ctx context.Context, capturer audiodevice.Capturer) {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.receiver.Run(sessionCtx)
		cancel()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.playback.Run(sessionCtx); err != nil {
			s.log.Error("playback backend error", "error", err)
		}
		cancel()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runHeartbeat(sessionCtx, cancel)
	}()

	<-sessionCtx.Done()
	s.running.Store(false)
	capturer.Stop()
	s.sender.Stop()
	wg.Wait()
}

func (s *Session) runHeartbeat(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(wire.HeartbeatInterval * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := Heartbeat(s.controlAddr); err != nil {
				s.log.Error("heartbeat failed, tearing down session", "error", err)
				cancel()
				return
			}
		}
	}
}

// Shutdown sends DISCONNECT and releases the audio socket. Call after Run
// returns.
func (s *Session) Shutdown() {
	Disconnect(s.controlAddr, s.log)
	s.audioConn.Close()
}

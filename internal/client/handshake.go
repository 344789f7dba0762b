// Package client implements the two client-side halves of a voice
// session — sending captured audio to the relay and receiving, jittering,
// and playing back the peer's audio — plus the control-channel handshake
// and heartbeat that bracket a session.
package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"voxrelay/internal/wire"
)

// ErrHandshakeFailed is returned by Handshake after exhausting its retries.
var ErrHandshakeFailed = errors.New("client: handshake failed")

// Handshake performs the TCP HELLO exchange against serverAddr, retrying
// up to wire.HandshakeRetries times with a wire.HandshakeTimeout per
// attempt. It returns nil only on a WELCOME response.
func Handshake(serverAddr string, listenPort int, targetHost string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	req := wire.EncodeHello(listenPort, targetHost)
	var lastErr error

	for attempt := 1; attempt <= wire.HandshakeRetries; attempt++ {
		log.Info("attempting handshake", "server", serverAddr, "attempt", attempt)

		err := attemptHello(serverAddr, req)
		if err == nil {
			log.Info("handshake succeeded", "server", serverAddr, "attempt", attempt)
			return nil
		}
		lastErr = err
		log.Warn("handshake attempt failed", "attempt", attempt, "error", err)
	}

	return fmt.Errorf("%w: %v", ErrHandshakeFailed, lastErr)
}

func attemptHello(serverAddr string, req []byte) error {
	conn, err := net.DialTimeout("tcp", serverAddr, wire.HandshakeTimeout*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(wire.HandshakeTimeout * time.Second))

	if _, err := conn.Write(req); err != nil {
		return err
	}

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		return err
	}

	resp := buf[:n]
	switch {
	case string(resp) == string(wire.RespWelcome):
		return nil
	case string(resp) == string(wire.RespFull):
		return errors.New("relay registry full")
	default:
		return fmt.Errorf("unexpected response %q", resp)
	}
}

// Heartbeat sends one HEARTBEAT to serverAddr and returns an error unless
// the response is ALIVE. Callers invoke this on wire.HeartbeatInterval;
// a session is torn down after a single failed heartbeat, per the policy
// in spec §4.6.
func Heartbeat(serverAddr string) error {
	conn, err := net.DialTimeout("tcp", serverAddr, wire.HandshakeTimeout*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(wire.HandshakeTimeout * time.Second))

	if _, err := conn.Write(wire.ReqHeartbeat); err != nil {
		return err
	}

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		return err
	}
	if string(buf[:n]) != string(wire.RespAlive) {
		return fmt.Errorf("unexpected heartbeat response %q", buf[:n])
	}
	return nil
}

// Disconnect sends a best-effort DISCONNECT to serverAddr; failures are
// not reported since the relay's heartbeat sweeper will reclaim the
// registration regardless.
func Disconnect(serverAddr string, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := net.DialTimeout("tcp", serverAddr, wire.HandshakeTimeout*time.Second)
	if err != nil {
		log.Warn("disconnect dial failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(wire.HandshakeTimeout * time.Second))
	conn.Write(wire.ReqDisconnect)
}

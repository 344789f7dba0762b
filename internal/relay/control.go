// Package relay implements the relay server's three always-on activities:
// the control-channel acceptor, the datagram forwarder, and the heartbeat
// sweeper, plus the optional diagnostics HTTP surface.
package relay

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"time"

	"voxrelay/internal/registry"
	"voxrelay/internal/wire"
)

// ControlServer accepts control-channel connections and serves each with a
// single-shot request/response handler.
type ControlServer struct {
	reg *registry.Registry
	log *slog.Logger
}

// NewControlServer builds a ControlServer bound to reg's pairing registry.
func NewControlServer(reg *registry.Registry, log *slog.Logger) *ControlServer {
	if log == nil {
		log = slog.Default()
	}
	return &ControlServer{reg: reg, log: log}
}

// Run listens on addr and accepts connections until ctx is canceled.
func (c *ControlServer) Run(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	c.log.Info("control channel listening", "addr", addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				c.log.Warn("control accept failed", "error", err)
				continue
			}
		}
		go c.handle(conn)
	}
}

// handle serves exactly one request on conn, then closes it.
func (c *ControlServer) handle(conn net.Conn) {
	defer conn.Close()

	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}

	conn.SetReadDeadline(time.Now().Add(wire.TCPTimeout * time.Second))

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			conn.Write(wire.RespTimeout)
			return
		}
		conn.Write(wire.RespError)
		return
	}
	req := buf[:n]

	switch {
	case bytes.HasPrefix(req, wire.ReqHelloPrefix):
		c.handleHello(conn, host, req)
	case bytes.Equal(req, wire.ReqHeartbeat):
		c.reg.Heartbeat(host)
		conn.Write(wire.RespAlive)
	case bytes.Equal(req, wire.ReqDisconnect):
		c.reg.Disconnect(host)
		conn.Write(wire.RespBye)
	default:
		conn.Write(wire.RespInvalid)
	}
}

func (c *ControlServer) handleHello(conn net.Conn, host string, req []byte) {
	hello, err := wire.DecodeHello(req)
	if err != nil {
		c.log.Warn("malformed HELLO", "host", host, "error", err)
		conn.Write(wire.RespInvalid)
		return
	}

	result := c.reg.Hello(host, hello.ListenPort, hello.TargetHost)
	if result == registry.HelloFull {
		conn.Write(wire.RespFull)
		return
	}
	conn.Write(wire.RespWelcome)
}

package relay

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"time"

	"voxrelay/internal/registry"
	"voxrelay/internal/wire"
)

// Forwarder is the relay's pure address-rewriting datagram path: it never
// inspects packet contents, only the registry entry for the source host.
type Forwarder struct {
	reg  *registry.Registry
	log  *slog.Logger
	conn *net.UDPConn
}

// NewForwarder builds a Forwarder bound to reg's pairing registry.
func NewForwarder(reg *registry.Registry, log *slog.Logger) *Forwarder {
	if log == nil {
		log = slog.Default()
	}
	return &Forwarder{reg: reg, log: log}
}

// Run binds addr and forwards datagrams until ctx is canceled. The read
// deadline is refreshed every iteration so Accept-equivalent blocking calls
// remain responsive to shutdown without affecting steady-state throughput.
func (f *Forwarder) Run(ctx context.Context, addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	f.conn = conn
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	f.log.Info("datagram forwarder listening", "addr", addr)
	buf := make([]byte, wire.RecvBufferSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		n, srcAddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			default:
				f.log.Warn("datagram read error", "error", err)
				continue
			}
		}

		f.forward(srcAddr.IP.String(), buf[:n])
	}
}

func (f *Forwarder) forward(sourceHost string, payload []byte) {
	targetHost, targetPort, ok := f.reg.Forward(sourceHost)
	if !ok {
		return
	}

	dst, err := net.ResolveUDPAddr("udp", net.JoinHostPort(targetHost, strconv.Itoa(targetPort)))
	if err != nil {
		f.log.Warn("forward target resolve failed", "target_host", targetHost, "error", err)
		return
	}

	if _, err := f.conn.WriteToUDP(payload, dst); err != nil {
		f.log.Warn("forward send failed", "source_host", sourceHost, "target_host", targetHost, "error", err)
		return
	}
	f.reg.RecordForwarded(sourceHost)
}

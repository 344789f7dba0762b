package client

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"voxrelay/internal/jitter"
	"voxrelay/internal/wire"
)

// socketReadDeadline bounds each receive-loop read so shutdown stays
// responsive without affecting steady-state behavior.
const socketReadDeadline = 1 * time.Second

// Receiver reads audio datagrams, filters by the relay's host to reject
// anything not routed through it, and feeds the jitter buffer. It shares
// buf with a Playback loop under mu; the receiver is buf's sole writer.
type Receiver struct {
	conn        *net.UDPConn
	relayHost   string
	buf         *jitter.Buffer
	mu          *sync.Mutex
	eotReceived atomic.Bool
	log         *slog.Logger
}

// NewReceiver wraps conn (already bound to the client's receive port) and
// filters incoming datagrams to those whose source host equals relayHost.
func NewReceiver(conn *net.UDPConn, relayHost string, buf *jitter.Buffer, mu *sync.Mutex, log *slog.Logger) *Receiver {
	if log == nil {
		log = slog.Default()
	}
	return &Receiver{conn: conn, relayHost: relayHost, buf: buf, mu: mu, log: log}
}

// EOTReceived reports whether an end-of-transmission datagram has arrived.
func (r *Receiver) EOTReceived() bool {
	return r.eotReceived.Load()
}

// Run reads datagrams until ctx is canceled or EOT is observed.
func (r *Receiver) Run(ctx context.Context) {
	buf := make([]byte, wire.RecvBufferSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r.conn.SetReadDeadline(time.Now().Add(socketReadDeadline))
		n, addr, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
				r.log.Warn("receive error", "error", err)
				continue
			}
		}

		if addr.IP.String() != r.relayHost {
			continue
		}
		r.handleDatagram(buf[:n])
		if r.eotReceived.Load() {
			return
		}
	}
}

func (r *Receiver) handleDatagram(data []byte) {
	seq, payload, ok := wire.DecodeAudioPacket(data)
	if !ok {
		return
	}
	if seq == wire.EOTSeqNum {
		r.eotReceived.Store(true)
		return
	}
	if len(payload) != wire.BytesPerPacket {
		return
	}
	// data is a reused read buffer owned by Run; the jitter buffer can
	// hold this packet across many future reads, so it must own a copy.
	stored := append([]byte(nil), payload...)
	r.mu.Lock()
	r.buf.Add(seq, stored)
	r.mu.Unlock()
}

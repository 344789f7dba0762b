package client

import (
	"log/slog"
	"net"
	"sync/atomic"

	"voxrelay/internal/wire"
)

// Sender packetizes captured PCM frames and emits them to the relay's
// datagram address, tagging each with a monotonic sequence number.
type Sender struct {
	conn      *net.UDPConn
	recording atomic.Bool
	nextSeq   atomic.Uint32
	log       *slog.Logger
}

// NewSender wraps a UDP socket already connected to the relay's datagram
// address. recording starts true.
func NewSender(conn *net.UDPConn, log *slog.Logger) *Sender {
	if log == nil {
		log = slog.Default()
	}
	s := &Sender{conn: conn, log: log}
	s.recording.Store(true)
	return s
}

// OnFrame is the capture callback: it converts one float32 PCM frame to
// 16-bit signed little-endian samples and sends one packet per full
// BytesPerPacket slice, discarding a trailing partial slice; a ChunkSize
// frame yields exactly one packet. A stopped sender silently drops the
// callback.
func (s *Sender) OnFrame(samples []float32) {
	if !s.recording.Load() {
		return
	}

	pcm := floatToPCM16LE(samples)
	for off := 0; off+wire.BytesPerPacket <= len(pcm); off += wire.BytesPerPacket {
		seq := s.nextSeq.Add(1) - 1
		datagram := wire.EncodeAudioPacket(seq, pcm[off:off+wire.BytesPerPacket])
		if _, err := s.conn.Write(datagram); err != nil {
			s.log.Warn("send failed", "seq", seq, "error", err)
		}
	}
}

// Stop marks the sender as no longer recording and sends one EOT
// datagram. Call it once at shutdown; each call sends another EOT.
func (s *Sender) Stop() {
	s.recording.Store(false)
	if _, err := s.conn.Write(wire.EOTPacket()); err != nil {
		s.log.Warn("EOT send failed", "error", err)
	}
}

// floatToPCM16LE converts [-1.0, 1.0] float32 samples to 16-bit signed
// little-endian PCM bytes, matching the wire format's sample width.
func floatToPCM16LE(samples []float32) []byte {
	out := make([]byte, 0, len(samples)*2)
	for _, f := range samples {
		v := int16(f * 32767)
		out = append(out, byte(v), byte(v>>8))
	}
	return out
}

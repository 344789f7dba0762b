package client

import (
	"net"
	"testing"
	"time"

	"voxrelay/internal/wire"
)

func udpLoopback(t *testing.T) (send *net.UDPConn, recv *net.UDPConn) {
	t.Helper()
	recv, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	send, err = net.DialUDP("udp", nil, recv.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return send, recv
}

func TestSenderEmitsMonotonicSequence(t *testing.T) {
	send, recv := udpLoopback(t)
	defer send.Close()
	defer recv.Close()

	s := NewSender(send, nil)
	frame := make([]float32, wire.ChunkSize)

	for i := 0; i < 3; i++ {
		s.OnFrame(frame)
	}

	buf := make([]byte, wire.RecvBufferSize)
	recv.SetReadDeadline(time.Now().Add(time.Second))
	for want := uint32(0); want < 3; want++ {
		n, err := recv.Read(buf)
		if err != nil {
			t.Fatalf("read packet %d: %v", want, err)
		}
		seq, payload, ok := wire.DecodeAudioPacket(buf[:n])
		if !ok {
			t.Fatalf("decode packet %d failed", want)
		}
		if seq != want {
			t.Errorf("packet %d seq = %d, want %d", want, seq, want)
		}
		if len(payload) != wire.BytesPerPacket {
			t.Errorf("packet %d payload len = %d, want %d", want, len(payload), wire.BytesPerPacket)
		}
	}
}

func TestSenderDropsWhileStopped(t *testing.T) {
	send, recv := udpLoopback(t)
	defer send.Close()
	defer recv.Close()

	s := NewSender(send, nil)
	s.recording.Store(false)
	s.OnFrame(make([]float32, wire.ChunkSize))

	recv.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 64)
	if _, err := recv.Read(buf); err == nil {
		t.Error("expected no datagram while sender is stopped")
	}
}

func TestSenderStopEmitsSingleEOT(t *testing.T) {
	send, recv := udpLoopback(t)
	defer send.Close()
	defer recv.Close()

	s := NewSender(send, nil)
	s.Stop()

	recv.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, wire.RecvBufferSize)
	n, err := recv.Read(buf)
	if err != nil {
		t.Fatalf("read EOT: %v", err)
	}
	seq, payload, ok := wire.DecodeAudioPacket(buf[:n])
	if !ok || seq != wire.EOTSeqNum {
		t.Fatalf("seq = %d ok=%v, want EOTSeqNum", seq, ok)
	}
	for _, b := range payload {
		if b != 0 {
			t.Fatal("EOT payload must be all zero")
		}
	}
}

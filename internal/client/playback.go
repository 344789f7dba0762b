package client

import (
	"context"
	"sync"
	"time"

	"voxrelay/internal/audiodevice"
	"voxrelay/internal/jitter"
	"voxrelay/internal/wire"
)

// PlaybackTick is the wall-clock cadence at which the playback loop pulls
// one entry from the jitter buffer.
const PlaybackTick = wire.PlaybackIntervalMS * time.Millisecond

// PrefillDelay is how long playback waits before its first pull, to let
// the jitter buffer accumulate a cushion against reorder and loss.
const PrefillDelay = 200 * time.Millisecond

// Playback drains the jitter buffer on a fixed tick and writes either the
// decoded frame or silence to the output device.
type Playback struct {
	player  audiodevice.Player
	buf     *jitter.Buffer
	mu      *sync.Mutex
	receiver *Receiver
}

// NewPlayback builds a Playback loop over player, reading from buf under
// mu (shared with the receiver that fills it) and stopping once receiver
// reports EOT.
func NewPlayback(player audiodevice.Player, buf *jitter.Buffer, mu *sync.Mutex, receiver *Receiver) *Playback {
	return &Playback{player: player, buf: buf, mu: mu, receiver: receiver}
}

// Run starts the output device, waits PrefillDelay, then pulls from the
// jitter buffer every PlaybackTick until ctx is canceled or EOT arrives.
func (p *Playback) Run(ctx context.Context) error {
	if err := p.player.Start(); err != nil {
		return err
	}
	defer p.player.Stop()

	select {
	case <-time.After(PrefillDelay):
	case <-ctx.Done():
		return nil
	}

	ticker := time.NewTicker(PlaybackTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if p.receiver.EOTReceived() {
				return nil
			}
			p.tick()
		}
	}
}

func (p *Playback) tick() {
	p.mu.Lock()
	_, payload, ok := p.buf.Pop()
	p.mu.Unlock()

	if !ok {
		p.player.Write(make([]float32, wire.ChunkSize))
		return
	}
	p.player.Write(pcm16LEToFloat(payload))
}

// pcm16LEToFloat converts 16-bit signed little-endian PCM bytes to
// [-1.0, 1.0] float32 samples, padding with zeros or truncating to exactly
// wire.ChunkSize samples.
func pcm16LEToFloat(payload []byte) []float32 {
	out := make([]float32, wire.ChunkSize)
	n := len(payload) / 2
	if n > wire.ChunkSize {
		n = wire.ChunkSize
	}
	for i := 0; i < n; i++ {
		v := int16(uint16(payload[2*i]) | uint16(payload[2*i+1])<<8)
		out[i] = float32(v) / 32767.0
	}
	return out
}

// Package audiodevice defines the narrow interfaces the client's send and
// playback pipelines use to talk to a duplex PCM audio device, plus a
// github.com/gordonklaus/portaudio-backed implementation of each. Pipeline
// code never imports portaudio directly, so tests can substitute an
// in-memory fake.
package audiodevice

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// SampleRate, Channels and ChunkSize mirror the fixed wire format: 44.1 kHz
// mono, 882 samples (20 ms) per frame.
const (
	SampleRate = 44100
	Channels   = 1
	ChunkSize  = 882
)

// Capturer abstracts a PortAudio input stream for testing, matching the
// teacher's paStream naming (client-ref/audio.go). Start begins delivering
// ChunkSize-sample frames to onFrame from a background callback until Stop
// or Close is called.
type Capturer interface {
	Start(onFrame func(samples []float32)) error
	Stop() error
	Close() error
}

// Player abstracts a PortAudio output stream for testing. Write blocks
// until one ChunkSize-sample frame has been submitted to the device.
type Player interface {
	Start() error
	Write(samples []float32) error
	Stop() error
	Close() error
}

// portaudioCapturer is the real Capturer backed by portaudio.Stream.
type portaudioCapturer struct {
	stream *portaudio.Stream
}

// NewCapturer returns a Capturer for the default input device. It opens
// nothing; Start opens the stream at SampleRate/Channels/ChunkSize and
// begins delivering frames.
func NewCapturer() (Capturer, error) {
	c := &portaudioCapturer{}
	return c, nil
}

func (c *portaudioCapturer) Start(onFrame func(samples []float32)) error {
	in := make([]float32, ChunkSize*Channels)
	stream, err := portaudio.OpenDefaultStream(Channels, 0, SampleRate, len(in), in)
	if err != nil {
		return fmt.Errorf("audiodevice: open capture stream: %w", err)
	}
	c.stream = stream

	go func() {
		for {
			if err := stream.Read(); err != nil {
				return
			}
			frame := make([]float32, len(in))
			copy(frame, in)
			onFrame(frame)
		}
	}()

	return stream.Start()
}

func (c *portaudioCapturer) Stop() error {
	if c.stream == nil {
		return nil
	}
	return c.stream.Stop()
}

func (c *portaudioCapturer) Close() error {
	if c.stream == nil {
		return nil
	}
	return c.stream.Close()
}

// portaudioPlayer is the real Player backed by portaudio.Stream.
type portaudioPlayer struct {
	stream *portaudio.Stream
	out    []float32
}

// NewPlayer opens the default output device at SampleRate/Channels/ChunkSize.
func NewPlayer() (Player, error) {
	p := &portaudioPlayer{out: make([]float32, ChunkSize*Channels)}
	stream, err := portaudio.OpenDefaultStream(0, Channels, SampleRate, len(p.out), p.out)
	if err != nil {
		return nil, fmt.Errorf("audiodevice: open playback stream: %w", err)
	}
	p.stream = stream
	return p, nil
}

func (p *portaudioPlayer) Start() error {
	return p.stream.Start()
}

func (p *portaudioPlayer) Write(samples []float32) error {
	n := copy(p.out, samples)
	for ; n < len(p.out); n++ {
		p.out[n] = 0
	}
	return p.stream.Write()
}

func (p *portaudioPlayer) Stop() error {
	return p.stream.Stop()
}

func (p *portaudioPlayer) Close() error {
	return p.stream.Close()
}

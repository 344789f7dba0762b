package wire

import "encoding/binary"

// Audio datagram format, fixed by the protocol.
const (
	// SampleRate, Channels and ChunkSize describe the PCM stream carried
	// end to end: 44.1 kHz, mono, 882 samples (20 ms) per packet.
	SampleRate = 44100
	Channels   = 1
	ChunkSize  = 882

	// BytesPerSample is the transport sample width: 16-bit signed PCM.
	BytesPerSample = 2

	// BytesPerPacket is the audio payload size of every non-EOT datagram.
	BytesPerPacket = ChunkSize * BytesPerSample // 1764

	// SeqSize is the width of the sequence-number header.
	SeqSize = 4

	// DatagramSize is the total wire size of a well-formed audio datagram.
	DatagramSize = SeqSize + BytesPerPacket // 1768

	// RecvBufferSize is sized generously above DatagramSize so a read
	// never truncates a legitimate packet even if the format grows.
	RecvBufferSize = 2200

	// EOTSeqNum is the sentinel sequence number marking end of transmission.
	EOTSeqNum = 99999999

	// PlaybackIntervalMS is the wall-clock cadence of the playback loop.
	PlaybackIntervalMS = 20
)

// EncodeAudioPacket prepends the big-endian sequence number to payload.
// payload must already be BytesPerPacket long for a normal audio packet,
// or BytesPerPacket zero bytes for EOT.
func EncodeAudioPacket(seq uint32, payload []byte) []byte {
	buf := make([]byte, 0, SeqSize+len(payload))
	buf = binary.BigEndian.AppendUint32(buf, seq)
	buf = append(buf, payload...)
	return buf
}

// EOTPacket returns the wire bytes for the end-of-transmission datagram:
// the EOT sentinel sequence number followed by BytesPerPacket zero bytes.
func EOTPacket() []byte {
	return EncodeAudioPacket(EOTSeqNum, make([]byte, BytesPerPacket))
}

// DecodeAudioPacket splits a received datagram into its sequence number
// and payload. ok is false when data is shorter than the sequence header.
func DecodeAudioPacket(data []byte) (seq uint32, payload []byte, ok bool) {
	if len(data) < SeqSize {
		return 0, nil, false
	}
	seq = binary.BigEndian.Uint32(data[:SeqSize])
	return seq, data[SeqSize:], true
}

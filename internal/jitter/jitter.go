// Package jitter implements the client's receive-side jitter buffer: a
// small bounded collection of out-of-order audio packets, reordered by
// sequence number so the playback loop can pull them in order.
//
// Not safe for concurrent use; the receive loop and playback loop share
// one Buffer behind a mutex owned by the caller.
package jitter

import "sort"

// DefaultSize is the jitter buffer capacity used when a client does not
// override it, and MinSize/MaxSize bound the admissible override range.
const (
	DefaultSize = 4
	MinSize     = 1
	MaxSize     = 8
)

// packet is one buffered audio frame awaiting playback.
type packet struct {
	seq  uint32
	data []byte
}

// Buffer is a bounded, sequence-ordered collection of audio packets with
// an expected-sequence cursor. It re-anchors on the first packet inserted
// into an empty buffer and never grows past maxSize.
type Buffer struct {
	maxSize     int
	packets     []packet
	expectedSeq uint32
	hasExpected bool
}

// New returns an empty Buffer with the given capacity, clamped to
// [MinSize, MaxSize].
func New(maxSize int) *Buffer {
	if maxSize < MinSize {
		maxSize = MinSize
	}
	if maxSize > MaxSize {
		maxSize = MaxSize
	}
	return &Buffer{maxSize: maxSize}
}

// Add inserts one received packet. It returns false (and does not modify
// the buffer) when the packet is stale — seq is more than maxSize behind
// the current expected sequence — or a duplicate of an already-buffered
// sequence number. The stale check applies even to an empty buffer; a
// non-stale packet added to an empty buffer succeeds and re-anchors the
// expected-sequence cursor to its seq.
// When the buffer is at capacity, adding a new packet sorts by sequence
// and drops the lowest, keeping the maxSize highest; if the cursor is then
// below the lowest remaining sequence, it advances to that sequence so Pop
// does not wait on a dropped packet.
func (b *Buffer) Add(seq uint32, data []byte) bool {
	if b.hasExpected && int64(seq) < int64(b.expectedSeq)-int64(b.maxSize) {
		return false
	}

	if len(b.packets) == 0 {
		b.packets = append(b.packets, packet{seq: seq, data: data})
		b.expectedSeq = seq
		b.hasExpected = true
		return true
	}

	for _, p := range b.packets {
		if p.seq == seq {
			return false
		}
	}

	b.packets = append(b.packets, packet{seq: seq, data: data})
	sort.Slice(b.packets, func(i, j int) bool { return b.packets[i].seq < b.packets[j].seq })
	if len(b.packets) > b.maxSize {
		b.packets = b.packets[len(b.packets)-b.maxSize:]
		if b.expectedSeq < b.packets[0].seq {
			b.expectedSeq = b.packets[0].seq
		}
	}
	return true
}

// Pop returns the lowest-sequence buffered packet if it is at or before
// the expected sequence, advancing the cursor to seq+1 and removing it
// from the buffer. ok is false (and the buffer is unchanged) when the
// buffer is empty or the lowest sequence is still ahead of expectation.
func (b *Buffer) Pop() (seq uint32, data []byte, ok bool) {
	if len(b.packets) == 0 {
		return 0, nil, false
	}
	head := b.packets[0]
	if b.hasExpected && head.seq > b.expectedSeq {
		return 0, nil, false
	}
	b.packets = b.packets[1:]
	b.expectedSeq = head.seq + 1
	b.hasExpected = true
	return head.seq, head.data, true
}

// Len returns the number of packets currently buffered.
func (b *Buffer) Len() int {
	return len(b.packets)
}

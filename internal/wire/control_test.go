package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeHelloRoundTrip(t *testing.T) {
	data := EncodeHello(9999, "10.0.0.5")
	if !bytes.HasPrefix(data, ReqHelloPrefix) {
		t.Fatalf("encoded HELLO missing prefix: %q", data)
	}

	got, err := DecodeHello(data)
	if err != nil {
		t.Fatalf("DecodeHello() error = %v", err)
	}
	if got.ListenPort != 9999 || got.TargetHost != "10.0.0.5" {
		t.Errorf("DecodeHello() = %+v, want {9999 10.0.0.5}", got)
	}
}

func TestDecodeHelloMalformedTooShort(t *testing.T) {
	_, err := DecodeHello([]byte("HELLO"))
	if !errors.Is(err, ErrMalformedHello) {
		t.Errorf("DecodeHello() error = %v, want ErrMalformedHello", err)
	}
}

func TestDecodeHelloEmptyTarget(t *testing.T) {
	_, err := DecodeHello(EncodeHello(1234, ""))
	if !errors.Is(err, ErrMalformedHello) {
		t.Errorf("DecodeHello() error = %v, want ErrMalformedHello for empty target", err)
	}
}

func TestDecodeHelloBoundaryLength(t *testing.T) {
	// Exactly 9 bytes ("HELLO" + 4-byte port) with no target host is the
	// shortest request that passes the length check but fails on the
	// empty-host check.
	data := append([]byte{}, ReqHelloPrefix...)
	data = append(data, 0, 0, 0x27, 0x10) // port 10000
	if len(data) != 9 {
		t.Fatalf("test setup: len(data) = %d, want 9", len(data))
	}
	_, err := DecodeHello(data)
	if !errors.Is(err, ErrMalformedHello) {
		t.Errorf("DecodeHello() error = %v, want ErrMalformedHello", err)
	}
}

package registry

import (
	"testing"
	"time"
)

func TestHelloRegistersAndStaysUnpaired(t *testing.T) {
	r := New(nil)
	res := r.Hello("1.1.1.1", 9001, "2.2.2.2")
	if res != HelloWelcome {
		t.Fatalf("Hello() = %v, want HelloWelcome", res)
	}
	_, _, ok := r.Forward("1.1.1.1")
	if ok {
		t.Error("Forward() should fail before the target registers back")
	}
}

func TestHelloMutualPairing(t *testing.T) {
	r := New(nil)
	r.Hello("1.1.1.1", 9001, "2.2.2.2")
	r.Hello("2.2.2.2", 9002, "1.1.1.1")

	host, port, ok := r.Forward("1.1.1.1")
	if !ok || host != "2.2.2.2" || port != 9002 {
		t.Errorf("Forward(1.1.1.1) = (%q, %d, %v), want (2.2.2.2, 9002, true)", host, port, ok)
	}
	host, port, ok = r.Forward("2.2.2.2")
	if !ok || host != "1.1.1.1" || port != 9001 {
		t.Errorf("Forward(2.2.2.2) = (%q, %d, %v), want (1.1.1.1, 9001, true)", host, port, ok)
	}
}

func TestHelloFullRegistryRejectsNewHost(t *testing.T) {
	r := New(nil)
	for i := 0; i < MaxClients; i++ {
		host := string(rune('a' + i))
		if res := r.Hello(host, 9000+i, "nobody"); res != HelloWelcome {
			t.Fatalf("Hello(%s) = %v, want HelloWelcome", host, res)
		}
	}
	if res := r.Hello("overflow", 9999, "nobody"); res != HelloFull {
		t.Errorf("Hello() on full registry = %v, want HelloFull", res)
	}
	if r.Count() != MaxClients {
		t.Errorf("Count() = %d, want %d", r.Count(), MaxClients)
	}
}

func TestHelloFullRegistryStillAllowsReregistration(t *testing.T) {
	r := New(nil)
	for i := 0; i < MaxClients; i++ {
		host := string(rune('a' + i))
		r.Hello(host, 9000+i, "nobody")
	}
	// Re-registering an existing host must succeed even when the registry
	// is already at capacity.
	if res := r.Hello("a", 9500, "nobody"); res != HelloWelcome {
		t.Errorf("re-registering existing host on full registry = %v, want HelloWelcome", res)
	}
}

func TestDisconnectRemovesRegistrationAndHeartbeat(t *testing.T) {
	r := New(nil)
	r.Hello("1.1.1.1", 9001, "2.2.2.2")
	r.Disconnect("1.1.1.1")
	if r.Count() != 0 {
		t.Errorf("Count() after Disconnect = %d, want 0", r.Count())
	}
	if _, _, ok := r.Forward("1.1.1.1"); ok {
		t.Error("Forward() should fail after Disconnect")
	}
}

func TestHeartbeatOnUnregisteredHostCreatesNoState(t *testing.T) {
	r := New(nil)
	r.Heartbeat("ghost")
	// Sweeping immediately must not panic or register anything for "ghost".
	r.Sweep(time.Now())
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0 after heartbeat on unregistered host", r.Count())
	}
}

func TestSweepEvictsStaleRegistrations(t *testing.T) {
	r := New(nil)
	r.Hello("1.1.1.1", 9001, "2.2.2.2")

	future := time.Now().Add(HeartbeatTimeout + time.Second)
	r.Sweep(future)

	if r.Count() != 0 {
		t.Errorf("Count() after Sweep past timeout = %d, want 0", r.Count())
	}
}

func TestSweepKeepsFreshRegistrations(t *testing.T) {
	r := New(nil)
	r.Hello("1.1.1.1", 9001, "2.2.2.2")

	r.Sweep(time.Now().Add(time.Second))

	if r.Count() != 1 {
		t.Errorf("Count() after Sweep within timeout = %d, want 1", r.Count())
	}
}

func TestHeartbeatRefreshesAgeOnlyForRegisteredHost(t *testing.T) {
	r := New(nil)
	r.Hello("1.1.1.1", 9001, "2.2.2.2")

	// Heartbeat stamps the current time, so instead of advancing the clock
	// the original heartbeat is moved back to just inside the timeout.
	r.hbMu.Lock()
	r.hb["1.1.1.1"] = time.Now().Add(-(HeartbeatTimeout - time.Second))
	r.hbMu.Unlock()

	// Near the timeout, refresh, then confirm it survives a sweep that
	// would have evicted the original heartbeat.
	now := time.Now()
	r.Sweep(now) // should not evict yet
	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 before refresh", r.Count())
	}

	r.Heartbeat("1.1.1.1")
	r.Sweep(now.Add(2 * time.Second))
	if r.Count() != 1 {
		t.Errorf("Count() after refreshed heartbeat = %d, want 1 (should survive)", r.Count())
	}

	// A heartbeat from a host with no registration creates no entry.
	r.Heartbeat("ghost")
	r.hbMu.Lock()
	_, ghost := r.hb["ghost"]
	r.hbMu.Unlock()
	if ghost {
		t.Error("Heartbeat() on unregistered host created a heartbeat entry")
	}
}

func TestRecordForwardedIsDiagnosticOnly(t *testing.T) {
	r := New(nil)
	r.Hello("1.1.1.1", 9001, "2.2.2.2")
	r.Hello("2.2.2.2", 9002, "1.1.1.1")
	r.RecordForwarded("1.1.1.1")
	r.RecordForwarded("1.1.1.1")

	snaps := r.Snapshots()
	var found bool
	for _, s := range snaps {
		if s.Host == "1.1.1.1" {
			found = true
			if s.PacketsForwarded != 2 {
				t.Errorf("PacketsForwarded = %d, want 2", s.PacketsForwarded)
			}
			if !s.Paired {
				t.Error("snapshot should report paired=true")
			}
		}
	}
	if !found {
		t.Fatal("snapshot for 1.1.1.1 not found")
	}
}

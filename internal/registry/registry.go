// Package registry implements the relay's pairing registry: the set of
// endpoints currently registered over the control channel, and the
// heartbeat bookkeeping that ages them out. It is modeled as a
// process-scoped struct passed by handle to every goroutine that needs
// it, never as ambient package state.
package registry

import (
	"log/slog"
	"sync"
	"time"
)

// MaxClients bounds the number of simultaneous registrations.
const MaxClients = 10

// HeartbeatTimeout is the age past which a registration is considered
// stale and evicted by the sweeper.
const HeartbeatTimeout = 120 * time.Second

// UnknownPort marks a registration whose target has not yet registered.
const UnknownPort = 0

// Record is one endpoint's registration state.
type Record struct {
	Host       string
	ListenPort int
	TargetHost string
	TargetPort int

	// Diagnostic-only fields, never consulted by pairing or forwarding
	// logic; they exist solely to answer the relay's status endpoint.
	RegisteredAt      time.Time
	PacketsForwarded  uint64
}

// Registry owns the registration table and the heartbeat table behind
// two mutexes. Lock ordering when both are needed is registry-before-
// heartbeat, matching the teacher's rule in Room (room.go) of always
// taking the outer state lock before any nested bookkeeping lock.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record

	hbMu sync.Mutex
	hb   map[string]time.Time

	log *slog.Logger
}

// New returns an empty Registry. A nil logger falls back to slog.Default().
func New(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		records: make(map[string]*Record),
		hb:      make(map[string]time.Time),
		log:     log,
	}
}

// HelloResult reports the outcome of a HELLO registration attempt.
type HelloResult int

const (
	HelloWelcome HelloResult = iota
	HelloFull
)

// Hello upserts the registration for host, resolves pairing in both
// directions when possible, and refreshes the heartbeat for host. It
// returns HelloFull (no state change at all) when the registry is full
// and host was not already registered.
func (r *Registry) Hello(host string, listenPort int, targetHost string) HelloResult {
	now := time.Now()

	r.mu.Lock()
	if _, exists := r.records[host]; !exists && len(r.records) >= MaxClients {
		r.mu.Unlock()
		r.log.Warn("registration rejected: registry full", "host", host)
		return HelloFull
	}

	rec := &Record{
		Host:         host,
		ListenPort:   listenPort,
		TargetHost:   targetHost,
		TargetPort:   UnknownPort,
		RegisteredAt: now,
	}
	r.records[host] = rec
	if partner, ok := r.records[targetHost]; ok {
		rec.TargetPort = partner.ListenPort
		if partner.TargetHost == host {
			partner.TargetPort = listenPort
		}
	}
	r.mu.Unlock()

	r.hbMu.Lock()
	r.hb[host] = now
	r.hbMu.Unlock()

	r.log.Info("endpoint registered", "host", host, "listen_port", listenPort, "target_host", targetHost, "paired", rec.TargetPort != UnknownPort)
	return HelloWelcome
}

// Heartbeat refreshes host's last-heartbeat time. Per the resolved open
// question in SPEC_FULL.md, a heartbeat entry is only created when a
// registration for host already exists; an unregistered host's
// heartbeat is still acknowledged by the caller but creates no state.
func (r *Registry) Heartbeat(host string) {
	r.mu.RLock()
	_, registered := r.records[host]
	r.mu.RUnlock()
	if !registered {
		return
	}
	r.hbMu.Lock()
	r.hb[host] = time.Now()
	r.hbMu.Unlock()
}

// Disconnect removes host's registration and heartbeat entry.
func (r *Registry) Disconnect(host string) {
	r.mu.Lock()
	delete(r.records, host)
	r.mu.Unlock()

	r.hbMu.Lock()
	delete(r.hb, host)
	r.hbMu.Unlock()

	r.log.Info("endpoint disconnected", "host", host)
}

// Forward looks up host's target. ok is false when host is unregistered
// or its target port is not yet known, in which case the caller must
// drop the datagram.
func (r *Registry) Forward(host string) (targetHost string, targetPort int, ok bool) {
	r.mu.RLock()
	rec, exists := r.records[host]
	r.mu.RUnlock()
	if !exists || rec.TargetPort == UnknownPort {
		return "", 0, false
	}
	return rec.TargetHost, rec.TargetPort, true
}

// RecordForwarded increments the diagnostic forwarded-packet counter for
// host. It never fails silently loud: an unregistered host is a no-op.
func (r *Registry) RecordForwarded(host string) {
	r.mu.Lock()
	if rec, ok := r.records[host]; ok {
		rec.PacketsForwarded++
	}
	r.mu.Unlock()
}

// Sweep removes every registration whose heartbeat age exceeds
// HeartbeatTimeout. It collects the victim list under the heartbeat
// lock first, then mutates the registry and finally the heartbeat
// table, so there is never a window where a swept record is still
// forwardable but has no heartbeat (spec.md §4.1 sweeper ordering).
func (r *Registry) Sweep(now time.Time) {
	r.hbMu.Lock()
	var victims []string
	for host, last := range r.hb {
		if now.Sub(last) > HeartbeatTimeout {
			victims = append(victims, host)
		}
	}
	r.hbMu.Unlock()

	if len(victims) == 0 {
		return
	}

	r.mu.Lock()
	for _, host := range victims {
		delete(r.records, host)
	}
	r.mu.Unlock()

	r.hbMu.Lock()
	for _, host := range victims {
		delete(r.hb, host)
	}
	r.hbMu.Unlock()

	for _, host := range victims {
		r.log.Info("endpoint swept on heartbeat timeout", "host", host)
	}
}

// Snapshot is a diagnostic, read-only copy of one registration, used by
// the relay's status endpoint. It is never used for pairing decisions.
type Snapshot struct {
	Host             string    `json:"host"`
	TargetHost       string    `json:"target_host"`
	Paired           bool      `json:"paired"`
	RegisteredAt     time.Time `json:"registered_at"`
	PacketsForwarded uint64    `json:"packets_forwarded"`
}

// Snapshots returns a stable, lock-free-to-read copy of every current
// registration.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, Snapshot{
			Host:             rec.Host,
			TargetHost:       rec.TargetHost,
			Paired:           rec.TargetPort != UnknownPort,
			RegisteredAt:     rec.RegisteredAt,
			PacketsForwarded: rec.PacketsForwarded,
		})
	}
	return out
}

// Count returns the number of currently registered endpoints.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

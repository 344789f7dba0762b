package relay

import (
	"context"
	"time"

	"voxrelay/internal/registry"
)

// SweepInterval is how often the sweeper checks for stale registrations.
const SweepInterval = 10 * time.Second

// RunSweeper wakes every SweepInterval and evicts registrations whose
// heartbeat has aged past registry.HeartbeatTimeout, until ctx is canceled.
func RunSweeper(ctx context.Context, reg *registry.Registry) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			reg.Sweep(now)
		}
	}
}

package queue

import (
	"context"
	"time"

	"github.com/verdantlabs/gardensync/internal/logging"
)

// Drainer periodically drains eligible jobs while the ledger is reachable.
// It is the queue's single processing goroutine: jobs execute one at a time
// in eligibility order, so priority and the per-account ordering guarantees
// hold without extra coordination.
type Drainer struct {
	manager   *Manager
	log       logging.Logger
	interval  time.Duration
	retention time.Duration
	online    func() bool
}

func NewDrainer(m *Manager, log logging.Logger, interval, retention time.Duration, online func() bool) *Drainer {
	return &Drainer{
		manager:   m,
		log:       log,
		interval:  interval,
		retention: retention,
		online:    online,
	}
}

// Run blocks until ctx is cancelled, draining on a fixed interval and
// whenever the manager signals a freshly queued job.
func (d *Drainer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.manager.Cleanup(ctx, d.retention); err != nil {
				d.log.Warn(ctx, "retention cleanup failed", "error", err)
			}
			d.drain(ctx)
		case <-d.manager.Nudge():
			d.drain(ctx)
		}
	}
}

func (d *Drainer) drain(ctx context.Context) {
	if !d.online() {
		return
	}

	eligible, err := d.manager.ListEligible(ctx)
	if err != nil {
		d.log.Error(ctx, "failed to list eligible jobs", "error", err)
		return
	}

	for _, job := range eligible {
		if ctx.Err() != nil {
			return
		}
		if !d.online() {
			return
		}
		if err := d.manager.ProcessJob(ctx, job.ID); err != nil {
			// the manager already classified and recorded the failure;
			// keep draining so one bad job cannot block the queue
			continue
		}
	}
}

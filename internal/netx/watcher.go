// Package netx provides the connectivity signal for the sync agent: a
// Watcher that periodically probes an HTTP health endpoint and reports
// online/offline transitions.
package netx

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

const probeTimeout = 3 * time.Second

// Watcher polls a health endpoint on a fixed interval and invokes the
// onChange callback whenever reachability flips. Online() reflects the most
// recent probe result and is safe for concurrent use.
type Watcher struct {
	url      string
	interval time.Duration
	client   *http.Client
	online   atomic.Bool
	onChange func(online bool)
}

func NewWatcher(url string, interval time.Duration, onChange func(online bool)) *Watcher {
	return &Watcher{
		url:      url,
		interval: interval,
		client:   &http.Client{},
		onChange: onChange,
	}
}

// Online reports the last observed connectivity state. The zero value is
// offline until the first successful probe.
func (w *Watcher) Online() bool {
	return w.online.Load()
}

// Run probes immediately, then on every tick, until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	w.probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	reachable := false
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err == nil {
		resp, err := w.client.Do(req)
		if err == nil {
			resp.Body.Close()
			reachable = resp.StatusCode < http.StatusInternalServerError
		}
	}

	if w.online.Swap(reachable) != reachable && w.onChange != nil {
		w.onChange(reachable)
	}
}

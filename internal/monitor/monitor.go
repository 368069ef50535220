// Package monitor periodically checks the blueprint store and publishes its
// state as Prometheus gauges.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/daap14/blueprints/internal/metrics"
)

// Pinger checks that a store backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counter reports how many blueprints are stored.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// StoreMonitor polls the store on a fixed interval and updates
// StoreUp and StoredBlueprints.
type StoreMonitor struct {
	pinger   Pinger
	counter  Counter
	metrics  *metrics.Metrics
	interval time.Duration
	timeout  time.Duration
}

// New creates a StoreMonitor. interval must be positive. A nil pinger means
// the store is always reachable.
func New(pinger Pinger, counter Counter, m *metrics.Metrics, interval time.Duration) *StoreMonitor {
	timeout := 5 * time.Second
	if interval < timeout {
		timeout = interval
	}
	return &StoreMonitor{
		pinger:   pinger,
		counter:  counter,
		metrics:  m,
		interval: interval,
		timeout:  timeout,
	}
}

// Start runs a check immediately and then on every tick. It blocks until ctx
// is cancelled.
func (s *StoreMonitor) Start(ctx context.Context) {
	slog.Info("store monitor started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.check(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("store monitor stopped")
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *StoreMonitor) check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			slog.Warn("store monitor: ping failed", "error", err)
			s.metrics.StoreUp.Set(0)
			return
		}
	}

	n, err := s.counter.Count(ctx)
	if err != nil {
		slog.Warn("store monitor: failed to count blueprints", "error", err)
		s.metrics.StoreUp.Set(0)
		return
	}

	s.metrics.StoreUp.Set(1)
	s.metrics.StoredBlueprints.Set(float64(n))
}

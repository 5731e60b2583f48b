package sync

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/possync/internal/logging"
)

// Prober performs one lightweight liveness request against the server.
type Prober interface {
	Health(ctx context.Context) error
}

// Monitor tracks server reachability. It has exactly two states, online and
// offline, and the only transition trigger is a probe result. Probe failures
// are silent: they hold the state at offline, nothing more.
type Monitor struct {
	prober  Prober
	timeout time.Duration
	logger  logging.Logger
	online  atomic.Bool
}

func NewMonitor(prober Prober, timeout time.Duration, logger logging.Logger) *Monitor {
	return &Monitor{prober: prober, timeout: timeout, logger: logger}
}

// Online reports the state as of the last probe.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Check runs one probe and updates the state. cameOnline is true only on the
// offline-to-online edge, which is the caller's cue to flush accumulated
// offline writes immediately instead of waiting for the next tick.
func (m *Monitor) Check(ctx context.Context) (online, cameOnline bool) {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.prober.Health(probeCtx)
	was := m.online.Load()
	now := err == nil
	m.online.Store(now)

	switch {
	case now && !was:
		m.logger.Info(ctx, "server reachable, going online")
	case !now && was:
		m.logger.Info(ctx, "server unreachable, going offline")
	}
	return now, now && !was
}

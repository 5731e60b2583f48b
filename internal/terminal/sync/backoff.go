package sync

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/possync/internal/terminal/models"
)

// backoff gates push attempts per entity type. Each consecutive failure
// doubles the wait before the next attempt, capped so a type is never
// silent longer than one periodic interval. Retry state is deliberately
// in-memory only: after a restart every type is eligible immediately.
type backoff struct {
	base time.Duration
	cap  time.Duration

	mu    sync.Mutex
	state map[models.EntityType]*typeState
}

type typeState struct {
	failures int
	next     time.Time
}

func newBackoff(base, cap time.Duration) *backoff {
	return &backoff{
		base:  base,
		cap:   cap,
		state: make(map[models.EntityType]*typeState),
	}
}

// allow reports whether a push for the type may run at now.
func (b *backoff) allow(t models.EntityType, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.state[t]
	if !ok {
		return true
	}
	return !now.Before(s.next)
}

// success clears the type's failure history.
func (b *backoff) success(t models.EntityType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.state, t)
}

// failure records one more consecutive failure and schedules the next
// eligible attempt.
func (b *backoff) failure(t models.EntityType, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.state[t]
	if !ok {
		s = &typeState{}
		b.state[t] = s
	}
	s.failures++

	delay := b.base
	for i := 1; i < s.failures; i++ {
		delay *= 2
		if delay >= b.cap {
			delay = b.cap
			break
		}
	}
	if delay > b.cap {
		delay = b.cap
	}
	s.next = now.Add(delay)
}

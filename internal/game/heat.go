/*
Package game
File: heat.go
Description:
    The Tap Heat controller: a bounded impulse counter that each tap raises
    and a one-shot timer lowers, one level per DecayInterval.

    Every tap re-arms the decay deadline, so decay only resumes one interval
    after the last tap. The controller never owns a real timer: it exposes
    the single pending deadline (NextDecay) and the host calls DecayTick or
    Advance when it is due.
*/

package game

import (
	"sync"
	"time"
)

// Heat is the transient tap boost. The zero value is not usable; use NewHeat.
type Heat struct {
	mu sync.Mutex

	level    int
	max      int
	interval time.Duration

	armed    bool      // At most one pending decay
	deadline time.Time // Valid only while armed
}

// NewHeat creates a quiescent controller.
func NewHeat(tuning Tuning) *Heat {
	tuning = tuning.WithDefaults()
	return &Heat{
		max:      tuning.MaxImpulse,
		interval: tuning.DecayInterval,
	}
}

// Level returns the current impulse level.
func (h *Heat) Level() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level
}

// MaxLevel returns the impulse ceiling.
func (h *Heat) MaxLevel() int {
	return h.max
}

// Tap raises the level by one (capped) and replaces any pending decay with
// one due a full interval from now.
func (h *Heat) Tap(now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.level < h.max {
		h.level++
	}
	h.armed = true
	h.deadline = now.Add(h.interval)
	return h.level
}

// DecayTick lowers the level by one. While the level stays positive the next
// decay is scheduled one interval after now; at zero nothing is scheduled.
func (h *Heat) DecayTick(now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.decayLocked(now)
	return h.level
}

func (h *Heat) decayLocked(now time.Time) {
	if h.level > 0 {
		h.level--
	}
	if h.level > 0 {
		h.armed = true
		h.deadline = now.Add(h.interval)
		return
	}
	h.armed = false
	h.deadline = time.Time{}
}

// Advance fires every decay that is due at or before now, each at its own
// scheduled instant so the cadence does not drift. It returns the number fired.
func (h *Heat) Advance(now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	fired := 0
	for h.armed && !h.deadline.After(now) {
		h.decayLocked(h.deadline)
		fired++
	}
	return fired
}

// NextDecay returns the pending decay deadline, if any.
func (h *Heat) NextDecay() (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deadline, h.armed
}

// Quiescent reports level zero with nothing scheduled.
func (h *Heat) Quiescent() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level == 0 && !h.armed
}

// Clear drops the level and any pending decay.
func (h *Heat) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.level = 0
	h.armed = false
	h.deadline = time.Time{}
}

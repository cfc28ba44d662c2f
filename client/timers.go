package client

import (
	"sync"
	"time"
)

type timerKind int

const (
	timerHeartbeat timerKind = iota
	timerReconnect
	timerKinds
)

// timerRegistry owns the two named timer slots of a session. Arming a slot
// cancels whatever was armed there before, and each arm bumps a generation
// counter that the pending callback re-checks, so a cancelled timer never
// runs its callback even if the runtime already queued it.
type timerRegistry struct {
	mu     sync.Mutex
	gens   [timerKinds]uint64
	timers [timerKinds]*time.Timer
}

func (r *timerRegistry) start(kind timerKind, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.timers[kind]; t != nil {
		t.Stop()
	}
	r.gens[kind]++
	gen := r.gens[kind]
	r.timers[kind] = time.AfterFunc(d, func() {
		r.mu.Lock()
		if r.gens[kind] != gen {
			r.mu.Unlock()
			return
		}
		r.timers[kind] = nil
		r.mu.Unlock()
		fn()
	})
}

func (r *timerRegistry) cancel(kind timerKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[kind]++
	if t := r.timers[kind]; t != nil {
		t.Stop()
		r.timers[kind] = nil
	}
}

func (r *timerRegistry) cancelAll() {
	for kind := timerKind(0); kind < timerKinds; kind++ {
		r.cancel(kind)
	}
}

// active reports whether a timer of the given kind is armed.
func (r *timerRegistry) active(kind timerKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers[kind] != nil
}

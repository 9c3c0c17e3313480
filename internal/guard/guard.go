// Package guard provides a non-blocking single-flight gate.
package guard

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Guard admits at most one holder at a time. A second caller is rejected
// immediately rather than queued.
//
// When staleAfter is positive, a holder that has kept the guard longer than
// that is considered leaked and the next TryAcquire reclaims it. Zero
// disables expiry.
type Guard struct {
	mu         sync.Mutex
	held       bool
	generation uint64
	since      time.Time
	staleAfter time.Duration
	now        func() time.Time
}

func New(staleAfter time.Duration) *Guard {
	if staleAfter < 0 {
		staleAfter = 0
	}
	return &Guard{staleAfter: staleAfter, now: time.Now}
}

// TryAcquire takes the guard if it is free and reports whether it did.
func (g *Guard) TryAcquire() bool {
	_, ok := g.acquire()
	return ok
}

// Release frees the guard unconditionally.
func (g *Guard) Release() {
	g.mu.Lock()
	g.held = false
	g.mu.Unlock()
}

// Lease is one acquisition of a Guard. After a stale reclaim the previous
// lease stays alive but no longer owns the guard.
type Lease struct {
	g          *Guard
	generation uint64
	once       sync.Once
}

// Acquire takes the guard if it is free and returns a lease for it.
func (g *Guard) Acquire() (*Lease, bool) {
	generation, ok := g.acquire()
	if !ok {
		return nil, false
	}
	return &Lease{g: g, generation: generation}, true
}

// Owned reports whether this lease still holds the guard.
func (l *Lease) Owned() bool {
	l.g.mu.Lock()
	defer l.g.mu.Unlock()
	return l.g.held && l.g.generation == l.generation
}

// Release frees the guard only if this lease still owns it. It is safe to
// call more than once.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.g.mu.Lock()
		if l.g.held && l.g.generation == l.generation {
			l.g.held = false
		}
		l.g.mu.Unlock()
	})
}

// Hold is Acquire returning just the scoped release.
func (g *Guard) Hold() (release func(), ok bool) {
	lease, ok := g.Acquire()
	if !ok {
		return nil, false
	}
	return lease.Release, true
}

// Busy reports whether the guard is currently held.
func (g *Guard) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}

// HeldSince returns when the current holder acquired the guard.
func (g *Guard) HeldSince() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.since, g.held
}

func (g *Guard) acquire() (uint64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.held {
		heldFor := now.Sub(g.since)
		if g.staleAfter == 0 || heldFor <= g.staleAfter {
			return 0, false
		}
		log.Warn().
			Dur("held_for", heldFor).
			Dur("stale_after", g.staleAfter).
			Uint64("generation", g.generation).
			Msg("reclaiming stale guard")
	}
	g.held = true
	g.generation++
	g.since = now
	return g.generation, true
}

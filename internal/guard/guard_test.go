package guard

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTryAcquireTwice(t *testing.T) {
	g := New(0)
	if !g.TryAcquire() {
		t.Fatalf("expected first acquire to succeed")
	}
	if g.TryAcquire() {
		t.Fatalf("expected second acquire to fail")
	}
	g.Release()
	if !g.TryAcquire() {
		t.Fatalf("expected acquire after release to succeed")
	}
}

func TestHoldReleaseIsIdempotent(t *testing.T) {
	g := New(0)
	release, ok := g.Hold()
	if !ok {
		t.Fatalf("expected hold to succeed")
	}
	if !g.Busy() {
		t.Fatalf("expected guard busy while held")
	}
	release()
	if g.Busy() {
		t.Fatalf("expected guard free after release")
	}

	// a later holder must not be freed by a repeated release
	if !g.TryAcquire() {
		t.Fatalf("expected acquire to succeed")
	}
	release()
	if !g.Busy() {
		t.Fatalf("stale release freed another holder")
	}
}

func TestConcurrentAcquireAdmitsOne(t *testing.T) {
	g := New(0)
	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAcquire() {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	if winners.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners.Load())
	}
}

func TestStaleGuardIsReclaimed(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := New(time.Minute)
	g.now = func() time.Time { return clock }

	staleRelease, ok := g.Hold()
	if !ok {
		t.Fatalf("expected first hold to succeed")
	}

	clock = clock.Add(30 * time.Second)
	if g.TryAcquire() {
		t.Fatalf("expected guard to still be held before expiry")
	}

	clock = clock.Add(time.Minute)
	if !g.TryAcquire() {
		t.Fatalf("expected stale guard to be reclaimed")
	}

	// the leaked holder finally returns; it must not free the new holder
	staleRelease()
	if !g.Busy() {
		t.Fatalf("expected reclaimed guard to remain held")
	}
	since, held := g.HeldSince()
	if !held || !since.Equal(clock) {
		t.Fatalf("unexpected holder start %v (held=%v)", since, held)
	}
}

func TestNoExpiryByDefault(t *testing.T) {
	clock := time.Now()
	g := New(0)
	g.now = func() time.Time { return clock }
	if !g.TryAcquire() {
		t.Fatalf("expected acquire")
	}
	clock = clock.Add(24 * time.Hour)
	if g.TryAcquire() {
		t.Fatalf("guard must never expire when staleAfter is zero")
	}
}

func TestLeaseOwnershipAfterReclaim(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := New(time.Minute)
	g.now = func() time.Time { return clock }

	first, ok := g.Acquire()
	if !ok || !first.Owned() {
		t.Fatalf("expected first lease to own the guard")
	}

	clock = clock.Add(2 * time.Minute)
	second, ok := g.Acquire()
	if !ok {
		t.Fatalf("expected stale guard to be reclaimed")
	}
	if first.Owned() {
		t.Fatalf("reclaimed lease must no longer own the guard")
	}
	if !second.Owned() {
		t.Fatalf("new lease must own the guard")
	}

	first.Release()
	if !g.Busy() || !second.Owned() {
		t.Fatalf("old lease release freed the new holder")
	}
	second.Release()
	second.Release()
	if g.Busy() || second.Owned() {
		t.Fatalf("expected guard free after release")
	}
}

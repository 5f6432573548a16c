// barrier.go - Reusable cyclic barrier for the worker pool.
//
// Go has no native reusable barrier primitive, so this implements a
// mutex + condvar + generation-counter design. A sync.WaitGroup is
// deliberately not used:
// a WaitGroup cannot be reused safely while some goroutines are still
// observing the previous Wait, and it has no way to broadcast a
// shutdown to waiters that have not arrived yet. Generation counting
// gives us both.

package sp3ctra

import "sync"

// Barrier releases exactly `parties` waiters per generation, or releases
// everyone immediately once Shutdown is called.
type Barrier struct {
	mu        sync.Mutex
	cond      *sync.Cond
	parties   int
	waiting   int
	generation uint64
	exiting   bool
}

// NewBarrier creates a barrier for the given number of parties (workers
// plus, where relevant, the coordinating goroutine).
func NewBarrier(parties int) *Barrier {
	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until all parties have called Wait for the current
// generation, then releases them all. It returns false if the barrier
// was shut down while waiting (or had already been shut down), in which
// case the caller must not proceed with block processing.
func (b *Barrier) Wait() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exiting {
		return false
	}

	gen := b.generation
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
		return true
	}

	for gen == b.generation && !b.exiting {
		b.cond.Wait()
	}
	return !b.exiting
}

// Shutdown releases every waiter, current and future, permanently. Safe
// to call multiple times.
func (b *Barrier) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exiting = true
	b.cond.Broadcast()
}

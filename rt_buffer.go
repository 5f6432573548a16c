// rt_buffer.go - RT output double buffer and the audio-callback contract.
//
// The callback side of this contract never takes a mutex: it does one
// atomic load of Ready, a bounded copy, and one atomic store to clear
// Ready. The producer (audio processing thread) publishes with a
// release store after filling the inactive slot.

package sp3ctra

import "sync/atomic"

// rtSlot is one double-buffered stereo block.
type rtSlot struct {
	Left  []float32
	Right []float32
	Ready atomic.Int32 // 0 or 1
}

// RTBuffer is the producer/consumer handoff: two slots, an active-write
// index, and per-slot ready flags.
type RTBuffer struct {
	slots     [2]*rtSlot
	writeSlot atomic.Int32
}

// NewRTBuffer pre-allocates both slots to maxBufferSize frames; no
// allocation occurs afterward regardless of the host's current block
// size.
func NewRTBuffer(maxBufferSize int) *RTBuffer {
	rb := &RTBuffer{}
	rb.slots[0] = &rtSlot{Left: make([]float32, maxBufferSize), Right: make([]float32, maxBufferSize)}
	rb.slots[1] = &rtSlot{Left: make([]float32, maxBufferSize), Right: make([]float32, maxBufferSize)}
	return rb
}

// WriteSlot returns the slot the producer should currently be filling:
// the one after the slot last published. It does not consult Ready, so
// if two Publish calls happen with no Pull in between, the slot it
// returns is still marked Ready and is overwritten.
func (rb *RTBuffer) WriteSlot() (idx int, left, right []float32) {
	idx = int(rb.writeSlot.Load())
	s := rb.slots[idx]
	return idx, s.Left, s.Right
}

// Publish marks the given slot ready with release semantics and advances
// the write index to the other slot.
func (rb *RTBuffer) Publish(idx int) {
	rb.slots[idx].Ready.Store(1)
	rb.writeSlot.Store(int32(1 - idx))
}

// Pull implements the audio callback's non-blocking pull contract: it
// atomically loads Ready for the currently-publishable slot; if ready,
// copies frames out and clears Ready (release, signaling
// the producer the slot is free); if not ready, the caller must emit
// silence — this is the defined xrun behavior.
func (rb *RTBuffer) Pull(outLeft, outRight []float32) (ok bool) {
	readIdx := int(1 - rb.writeSlot.Load())
	s := rb.slots[readIdx]
	if s.Ready.Load() == 0 {
		return false
	}
	n := len(outLeft)
	if len(s.Left) < n {
		n = len(s.Left)
	}
	copy(outLeft[:n], s.Left[:n])
	copy(outRight[:n], s.Right[:n])
	s.Ready.Store(0)
	return true
}

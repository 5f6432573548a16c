// frame_buffer.go - Lock-free double buffer handoff between the image-rate
// preprocessor and the audio-rate worker pool.
//
// Ownership: the FrameBuffer exclusively owns both PreprocessedFrame
// slots. The preprocessor writes into the inactive slot and only then
// toggles the active index, so a worker never observes a frame mid-write.
// Workers obtain their batched copy under Mu — exactly one lock per
// worker per block, never per note.

package sp3ctra

import (
	"sync"
	"sync/atomic"
)

// PreprocessedFrame is the per-image-row derived data the preprocessor
// produces and the workers consume.
type PreprocessedFrame struct {
	AdditiveNotes  []float32
	ContrastFactor float32

	PanPositions []float32
	LeftGains    []float32
	RightGains   []float32

	PolyMagnitudes      []float32
	PolyLeftGains       []float32
	PolyRightGains      []float32
	PolyHarmonicity     []float32
	PolyDetuneCents     []float32
	PolyInharmonicRatio []float32

	Valid     bool
	TimestampUs int64
}

func newPreprocessedFrame(numNotes, numPoly int) *PreprocessedFrame {
	return &PreprocessedFrame{
		AdditiveNotes: make([]float32, numNotes),
		PanPositions:  make([]float32, numNotes),
		LeftGains:     make([]float32, numNotes),
		RightGains:    make([]float32, numNotes),

		PolyMagnitudes:      make([]float32, numPoly),
		PolyLeftGains:       make([]float32, numPoly),
		PolyRightGains:      make([]float32, numPoly),
		PolyHarmonicity:     make([]float32, numPoly),
		PolyDetuneCents:     make([]float32, numPoly),
		PolyInharmonicRatio: make([]float32, numPoly),
	}
}

// FrameBuffer is the two-slot double buffer. The active slot index and
// validity flag are read under Mu by consumers doing the one batched
// per-block copy; the producer (Engine.PushRow) holds the same mutex
// while it preprocesses into the inactive slot and flips the active
// index.
type FrameBuffer struct {
	Mu     sync.Mutex
	slots  [2]*PreprocessedFrame
	active atomic.Int32
}

// NewFrameBuffer allocates both slots up front; no allocation occurs on
// the hot path afterward.
func NewFrameBuffer(numNotes, numPoly int) *FrameBuffer {
	fb := &FrameBuffer{}
	fb.slots[0] = newPreprocessedFrame(numNotes, numPoly)
	fb.slots[1] = newPreprocessedFrame(numNotes, numPoly)
	return fb
}

// Inactive returns the slot the producer should write into next.
func (fb *FrameBuffer) Inactive() *PreprocessedFrame {
	return fb.slots[1-fb.active.Load()]
}

// Publish toggles the active slot after the producer has finished writing
// into the inactive one. Must be called with Mu held.
func (fb *FrameBuffer) Publish() {
	fb.active.Store(1 - fb.active.Load())
}

// Snapshot returns the currently active, fully-published slot. Callers
// take Mu for the duration of copying out of it.
func (fb *FrameBuffer) Snapshot() *PreprocessedFrame {
	return fb.slots[fb.active.Load()]
}

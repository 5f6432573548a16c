// Package otosink adapts github.com/ebitengine/oto/v3 to the
// sp3ctra.AudioSink contract.
//
// oto is pull-based: it calls Read(p []byte) on its own goroutine and
// drains samples from whatever the player exposes. sp3ctra's contract is
// push-based (Engine.Process renders a block, the sink must accept it),
// so this adapter bridges the two with a single pending-block pointer
// that Write stores and Read drains sample-by-sample.
package otosink

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// Sink implements sp3ctra.AudioSink against a real audio device via oto.
type Sink struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	started bool

	pending atomic.Pointer[stereoBlock]
}

type stereoBlock struct {
	left, right []float32
	pos         int
}

// New constructs an unprepared Sink; call Prepare before Write.
func New() *Sink {
	return &Sink{}
}

// Prepare opens the oto context for the given sample rate. blockSize is
// not used: oto picks its own buffer size.
func (s *Sink) Prepare(sampleRate, blockSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return err
	}
	<-ready

	s.ctx = ctx
	s.player = ctx.NewPlayer(s)
	s.player.Play()
	s.started = true
	return nil
}

// Read implements io.Reader for oto.Player: it drains the currently
// pending block, interleaved L/R, and pads with silence if Write hasn't
// produced a block yet. Never blocks, never allocates on this path.
func (s *Sink) Read(p []byte) (int, error) {
	block := s.pending.Load()
	frameBytes := 8 // 2 channels * 4 bytes
	n := len(p) / frameBytes * frameBytes

	if block == nil {
		for i := 0; i < n; i++ {
			p[i] = 0
		}
		return n, nil
	}

	written := 0
	for written < n && block.pos < len(block.left) {
		l := block.left[block.pos]
		r := block.right[block.pos]
		putFloat32LE(p[written:], l)
		putFloat32LE(p[written+4:], r)
		block.pos++
		written += frameBytes
	}
	if block.pos >= len(block.left) {
		s.pending.Store(nil)
	}
	for ; written < n; written++ {
		p[written] = 0
	}
	return n, nil
}

func putFloat32LE(p []byte, f float32) {
	bits := float32bits(f)
	p[0] = byte(bits)
	p[1] = byte(bits >> 8)
	p[2] = byte(bits >> 16)
	p[3] = byte(bits >> 24)
}

// Write hands one rendered block to the sink; it is consumed by Read as
// oto's internal goroutine pulls it.
func (s *Sink) Write(left, right []float32) error {
	if len(left) != len(right) {
		return errors.New("otosink: channel length mismatch")
	}
	block := &stereoBlock{left: left, right: right}
	s.pending.Store(block)
	return nil
}

// Release stops playback and releases the device.
func (s *Sink) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Close()
		s.player = nil
	}
	s.started = false
	return nil
}

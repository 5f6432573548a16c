// Package nullsink implements sp3ctra.AudioSink as a silent discard
// sink, for test and CI environments without an audio device.
package nullsink

// Sink discards every written block. Useful for tests and headless runs.
type Sink struct {
	SampleRate int
	BlockSize  int
}

// New returns a ready-to-use null sink.
func New() *Sink { return &Sink{} }

func (s *Sink) Prepare(sampleRate, blockSize int) error {
	s.SampleRate = sampleRate
	s.BlockSize = blockSize
	return nil
}

func (s *Sink) Write(left, right []float32) error { return nil }

func (s *Sink) Release() error { return nil }

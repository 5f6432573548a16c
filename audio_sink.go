// audio_sink.go - Audio device contract.
//
// A concrete sink adapter owns the real device; the host renders each
// block with Engine.Process and hands it to the sink with Write.

package sp3ctra

// AudioSink is the external collaborator an engine hands rendered stereo
// frames to. Implementations live under backend/ (otosink, alsasink,
// nullsink).
type AudioSink interface {
	// Prepare configures the sink for the given sample rate and the
	// engine's block size, called once before the first Write.
	Prepare(sampleRate, blockSize int) error
	// Write hands one block of planar left/right samples to the sink,
	// which interleaves them itself if the device requires it. Whether
	// it blocks until the device accepts them depends on the
	// implementation: alsasink blocks, otosink queues the block and
	// returns at once.
	Write(left, right []float32) error
	// Release tears down the device. Safe to call multiple times.
	Release() error
}

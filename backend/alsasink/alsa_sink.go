// Package alsasink implements sp3ctra.AudioSink directly against ALSA
// via cgo. Writes interleaved stereo float output synchronously per
// block, matching the AudioSink.Write contract.
package alsasink

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* openPCM(const char* device, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, SND_PCM_STREAM_PLAYBACK, 0);
    return handle;
}

static int setupPCM(snd_pcm_t* handle, unsigned int rate, unsigned int channels) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_FLOAT);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, channels);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate(handle, params, rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static int writePCM(snd_pcm_t* handle, float* buffer, int frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static void closePCM(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// Sink drives an ALSA PCM device directly via libasound.
type Sink struct {
	handle  *C.snd_pcm_t
	mutex   sync.Mutex
	scratch []float32 // interleaved L/R scratch, reused across Write calls
	device  string
}

// New returns a Sink bound to the named ALSA device ("default" if empty).
func New(device string) *Sink {
	if device == "" {
		device = "default"
	}
	return &Sink{device: device}
}

// Prepare opens and configures the PCM device for stereo float output.
func (s *Sink) Prepare(sampleRate, blockSize int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cDevice := C.CString(s.device)
	defer C.free(unsafe.Pointer(cDevice))

	var cErr C.int
	handle := C.openPCM(cDevice, &cErr)
	if cErr < 0 {
		return fmt.Errorf("alsasink: open PCM device: %s", C.GoString(C.snd_strerror(cErr)))
	}

	if err := C.setupPCM(handle, C.uint(sampleRate), 2); err < 0 {
		C.closePCM(handle)
		return fmt.Errorf("alsasink: setup PCM: %s", C.GoString(C.snd_strerror(err)))
	}

	s.handle = handle
	s.scratch = make([]float32, blockSize*2)
	return nil
}

// Write interleaves left/right and blocks until ALSA accepts the frames,
// retrying once on EPIPE (buffer underrun).
func (s *Sink) Write(left, right []float32) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.handle == nil {
		return fmt.Errorf("alsasink: not prepared")
	}
	n := len(left)
	if cap(s.scratch) < n*2 {
		s.scratch = make([]float32, n*2)
	}
	buf := s.scratch[:n*2]
	for i := 0; i < n; i++ {
		buf[2*i] = left[i]
		buf[2*i+1] = right[i]
	}

	frames := C.writePCM(s.handle, (*C.float)(unsafe.Pointer(&buf[0])), C.int(n))
	if frames < 0 {
		if frames == -C.EPIPE {
			C.snd_pcm_prepare(s.handle)
			frames = C.writePCM(s.handle, (*C.float)(unsafe.Pointer(&buf[0])), C.int(n))
		}
		if frames < 0 {
			return fmt.Errorf("alsasink: write failed: %s", C.GoString(C.snd_strerror(C.int(frames))))
		}
	}
	return nil
}

// Release drains and closes the PCM device.
func (s *Sink) Release() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.handle != nil {
		C.closePCM(s.handle)
		s.handle = nil
	}
	return nil
}

// engine.go - Top-level synthesis core wiring every module together.
//
// Engine is the single embeddable entry point: a host owns an
// ImageSource and an AudioSink and drives rows in and rendered blocks
// out; Engine owns everything in between (preprocessing, the additive
// bank/workers/mixer, and the polyphonic voice engine).

package sp3ctra

import (
	"math/rand"
	"sync"
)

// Engine is the synthesis core: preprocessing, the additive bank, and
// the polyphonic voice engine wired into a single render path.
type Engine struct {
	cfg Config
	log Logger

	waveform *WaveformBank
	notes    *NoteBank
	pre      *Preprocessor
	frames   *FrameBuffer
	pool     *WorkerPool
	mixer    *Mixer
	poly     *PolyEngine
	params   *ParamRegistry

	rng *rand.Rand

	additiveScratchL []float32
	additiveScratchR []float32
	polyScratchL     []float32
	polyScratchR     []float32

	// additiveRT mirrors the poly engine's own RTBuffer: the mixer
	// publishes its combined block here under the same ready-flag
	// protocol, rather than handing the scratch straight to Process.
	additiveRT *RTBuffer

	regenRequest regenRequestState

	mu sync.Mutex
}

// regenRequestState holds a pending hot-reload request for the
// waveform bank; nil means no request pending. Guarded by Engine.mu
// rather than an atomic.Pointer since requests originate from
// UpdateConfig, which already takes Engine.mu, and are only consumed
// synchronously inside Process between blocks.
type regenRequestState struct {
	pending *waveformRange
}

// New builds an Engine from a validated Config.
func New(cfg Config, log Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = defaultLogger()
	}

	e := &Engine{
		cfg: cfg,
		log: log,
		rng: rand.New(rand.NewSource(1)),
	}

	e.waveform = BuildWaveformBank(cfg.LowFrequency, cfg.HighFrequency, cfg.NumNotes, cfg.SampleRate, cfg.CommaPerSemitone*cfg.SemitonePerOctave)
	e.notes = NewNoteBank(e.waveform, cfg.SampleRate, cfg.TauUpBaseMs, cfg.TauDownBaseMs, cfg.DecayFreqRefHz, cfg.DecayFreqBeta, e.rng)
	e.pre = NewPreprocessor(cfg.NumNotes, cfg.PixelsPerNote, cfg.GammaCorrection, cfg.PolyMaxOscillators)
	e.frames = NewFrameBuffer(cfg.NumNotes, cfg.PolyMaxOscillators)
	e.pool = NewWorkerPool(e.notes, e.waveform, e.frames, cfg.NumNotes, cfg.NumWorkers, cfg.MaxBufferSize, e.log)
	e.mixer = NewMixer(cfg.SampleRate, cfg.FadeTauMs, &cfg)
	e.poly = NewPolyEngine(&cfg, cfg.MaxBufferSize)
	e.params = NewParamRegistry()

	e.additiveScratchL = make([]float32, cfg.MaxBufferSize)
	e.additiveScratchR = make([]float32, cfg.MaxBufferSize)
	e.polyScratchL = make([]float32, cfg.MaxBufferSize)
	e.polyScratchR = make([]float32, cfg.MaxBufferSize)
	e.additiveRT = NewRTBuffer(cfg.MaxBufferSize)

	e.registerDefaultParams()
	e.pool.Start()

	return e, nil
}

// registerDefaultParams wires the hot-settable Config fields into the
// parameter registry so a host's CC routing can reach them by name
// without the host needing to know Engine internals.
func (e *Engine) registerDefaultParams() {
	e.params.RegisterCallback("low_frequency", func(_, raw float64) {
		e.UpdateConfig(ConfigPatch{LowFrequency: &raw})
	})
	e.params.RegisterCallback("high_frequency", func(_, raw float64) {
		e.UpdateConfig(ConfigPatch{HighFrequency: &raw})
	})
	e.params.RegisterCallback("poly_master_volume", func(_, raw float64) {
		e.UpdateConfig(ConfigPatch{PolyMasterVolume: &raw})
	})
}

// Params exposes the parameter registry so a host can Map additional CC
// routes before wiring a MIDI source.
func (e *Engine) Params() *ParamRegistry { return e.params }

// PushRow preprocesses one image row into the inactive frame slot and
// publishes it for the workers and poly engine to read on their next
// block.
func (e *Engine) PushRow(row ImageRow, timestampUs int64) {
	e.frames.Mu.Lock()
	defer e.frames.Mu.Unlock()
	frame := e.frames.Inactive()
	e.pre.Process(row, frame, timestampUs)
	frame.Valid = true
	e.frames.Publish()
}

// NoteOn forwards a Note On event to the polyphonic engine.
func (e *Engine) NoteOn(ev NoteOnEvent) { e.poly.NoteOn(ev) }

// NoteOff forwards a Note Off event to the polyphonic engine.
func (e *Engine) NoteOff(ev NoteOffEvent) { e.poly.NoteOff(ev) }

// ControlChange routes a CC event through the parameter registry.
func (e *Engine) ControlChange(ev ControlChangeEvent) { e.params.Route(ev) }

// UpdateConfig applies a sparse set of hot-settable parameter changes.
// SampleRate, NumNotes and NumWorkers are not patchable here; they are
// fixed when New builds the Engine.
func (e *Engine) UpdateConfig(patch ConfigPatch) {
	e.mu.Lock()
	defer e.mu.Unlock()

	regenNeeded := false
	if patch.LowFrequency != nil {
		e.cfg.LowFrequency = *patch.LowFrequency
		regenNeeded = true
	}
	if patch.HighFrequency != nil {
		e.cfg.HighFrequency = *patch.HighFrequency
		regenNeeded = true
	}
	if regenNeeded {
		e.regenRequest.pending = &waveformRange{LowFrequency: e.cfg.LowFrequency, HighFrequency: e.cfg.HighFrequency}
	}

	if patch.TauUpBaseMs != nil {
		e.cfg.TauUpBaseMs = *patch.TauUpBaseMs
	}
	if patch.TauDownBaseMs != nil {
		e.cfg.TauDownBaseMs = *patch.TauDownBaseMs
	}
	if patch.TauUpBaseMs != nil || patch.TauDownBaseMs != nil {
		e.notes.RecomputeEnvelopeCoefficients(e.cfg.TauUpBaseMs, e.cfg.TauDownBaseMs, e.cfg.DecayFreqRefHz, e.cfg.DecayFreqBeta)
	}

	if patch.SummationResponseExponent != nil {
		e.cfg.SummationResponseExponent = *patch.SummationResponseExponent
		e.mixer.ResponseExponent = float32(e.cfg.SummationResponseExponent)
	}
	if patch.SummationBaseLevel != nil {
		e.cfg.SummationBaseLevel = *patch.SummationBaseLevel
		e.mixer.BaseLevel = float32(e.cfg.SummationBaseLevel)
	}
	if patch.SoftLimitThreshold != nil {
		e.cfg.SoftLimitThreshold = *patch.SoftLimitThreshold
		e.mixer.SoftThreshold = float32(e.cfg.SoftLimitThreshold)
	}
	if patch.SoftLimitKnee != nil {
		e.cfg.SoftLimitKnee = *patch.SoftLimitKnee
		e.mixer.SoftKnee = float32(e.cfg.SoftLimitKnee)
	}
	if patch.VolumeWeightingExponent != nil {
		e.cfg.VolumeWeightingExponent = *patch.VolumeWeightingExponent
	}
	if patch.PolyMasterVolume != nil {
		e.cfg.PolyMasterVolume = *patch.PolyMasterVolume
		e.poly.masterVolume = float32(e.cfg.PolyMasterVolume)
	}
	if patch.PolyLFORateHz != nil {
		e.cfg.PolyLFORateHz = *patch.PolyLFORateHz
		e.poly.lfoRateHz = e.cfg.PolyLFORateHz
	}
}

// maybeRegenerateWaveform honors a pending frequency-range hot-reload
// request, synchronously between blocks while workers are parked on the
// start barrier.
func (e *Engine) maybeRegenerateWaveform() {
	e.mu.Lock()
	req := e.regenRequest.pending
	e.regenRequest.pending = nil
	e.mu.Unlock()

	if req == nil {
		return
	}

	newBank := BuildWaveformBank(req.LowFrequency, req.HighFrequency, e.cfg.NumNotes, e.cfg.SampleRate, e.cfg.CommaPerSemitone*e.cfg.SemitonePerOctave)
	for i, g := range newBank.Notes {
		n := &e.notes.Notes[i]
		n.Frequency = g.Frequency
		n.AreaSize = uint32(g.AreaSize)
		n.OctaveCoeff = uint32(g.OctaveCoeff)
		n.StartIndex = uint32(g.StartIndex)
		n.CurrentIndex %= n.AreaSize
	}
	e.notes.RecomputeEnvelopeCoefficients(e.cfg.TauUpBaseMs, e.cfg.TauDownBaseMs, e.cfg.DecayFreqRefHz, e.cfg.DecayFreqBeta)
	e.waveform = newBank
	e.pool.SetWaveformBank(newBank)
	e.mixer.TriggerFade()
}

// Process renders numFrames of audio into outLeft/outRight, summing the
// additive engine's and polyphonic engine's independent outputs: each
// runs its own double buffer under the same ready-flag protocol.
func (e *Engine) Process(outLeft, outRight []float32) {
	numFrames := len(outLeft)
	e.maybeRegenerateWaveform()

	e.frames.Mu.Lock()
	frame := e.frames.Snapshot()
	e.frames.Mu.Unlock()

	volWeightExp := float32(e.cfg.VolumeWeightingExponent)
	e.pool.DispatchBlock(numFrames, e.cfg.StereoEnabled, volWeightExp)

	contrast := float32(0)
	if frame != nil {
		contrast = frame.ContrastFactor
	}
	additiveIdx, additiveWriteL, additiveWriteR := e.additiveRT.WriteSlot()
	e.mixer.Combine(e.pool.Workers, numFrames, contrast, additiveWriteL[:numFrames], additiveWriteR[:numFrames])
	e.additiveRT.Publish(additiveIdx)

	if frame != nil {
		e.poly.Render(frame, numFrames)
	}
	e.poly.Publish(numFrames)

	additiveL := e.additiveScratchL[:numFrames]
	additiveR := e.additiveScratchR[:numFrames]
	gotAdditive := e.additiveRT.Pull(additiveL, additiveR)

	polyL := e.polyScratchL[:numFrames]
	polyR := e.polyScratchR[:numFrames]
	gotPoly := e.poly.RTBuffer().Pull(polyL, polyR)

	for i := 0; i < numFrames; i++ {
		var out, outR float32
		if gotAdditive {
			out = additiveL[i]
			outR = additiveR[i]
		}
		if gotPoly {
			out += polyL[i]
			outR += polyR[i]
		}
		outLeft[i] = clampf32(out, -1, 1)
		outRight[i] = clampf32(outR, -1, 1)
	}
}

// Release shuts down the worker pool and stops accepting further work.
// Safe to call once; a second call is a no-op aside from repeated
// barrier shutdowns, which Barrier.Shutdown tolerates.
func (e *Engine) Release() error {
	e.pool.Shutdown()
	return nil
}

// poly_engine.go - MIDI-driven, FFT-magnitude-shaped polyphonic voice
// engine.
//
// Shares the preprocessed frame buffer with the additive engine and
// publishes into its own independent RT output buffer under the same
// ready-flag protocol as the additive mixer.

package sp3ctra

import "math"

const noteOffGraceWindow = 3 // blocks a just-idled voice still matches a late Note Off

// PolyEngine is a fixed voice pool.
type PolyEngine struct {
	voices  []*Voice
	nextTrigger uint64

	sampleRate int
	numPartials int
	masterVolume float32
	amplitudeGamma float32
	minAudible float32
	highFreqHarmonicLimit float64

	filterCutoffHz   float64
	filterEnvDepthHz float64

	lfoRateHz       float64
	lfoDepthSemi    float64
	lfoPhase        float64

	volAttackMs, volDecayMs, volReleaseMs, volSustain             float64
	filterAttackMs, filterDecayMs, filterReleaseMs, filterSustain float64

	scratchLeft  []float32
	scratchRight []float32
	lfoMod       []float64

	rt *RTBuffer
}

// NewPolyEngine builds the fixed voice pool from Config.
func NewPolyEngine(cfg *Config, maxBufferSize int) *PolyEngine {
	pe := &PolyEngine{
		voices:                make([]*Voice, cfg.PolyNumVoices),
		sampleRate:            cfg.SampleRate,
		numPartials:           cfg.PolyMaxOscillators,
		masterVolume:          float32(cfg.PolyMasterVolume),
		amplitudeGamma:        float32(cfg.PolyAmplitudeGamma),
		minAudible:            float32(cfg.PolyMinAudibleAmplitude),
		highFreqHarmonicLimit: cfg.PolyHighFreqHarmonicLimitHz,
		filterCutoffHz:        cfg.PolyFilterCutoffHz,
		filterEnvDepthHz:      cfg.PolyFilterEnvDepthHz,
		lfoRateHz:             cfg.PolyLFORateHz,
		lfoDepthSemi:          cfg.PolyLFODepthSemitones,
		volAttackMs:           cfg.PolyVolAttackMs,
		volDecayMs:            cfg.PolyVolDecayMs,
		volReleaseMs:          cfg.PolyVolReleaseMs,
		volSustain:            cfg.PolyVolSustainLevel,
		filterAttackMs:        cfg.PolyFilterAttackMs,
		filterDecayMs:         cfg.PolyFilterDecayMs,
		filterReleaseMs:       cfg.PolyFilterReleaseMs,
		filterSustain:         cfg.PolyFilterSustainLevel,
		scratchLeft:           make([]float32, maxBufferSize),
		scratchRight:          make([]float32, maxBufferSize),
		lfoMod:                make([]float64, maxBufferSize),
		rt:                    NewRTBuffer(maxBufferSize),
	}
	for i := range pe.voices {
		v := newVoice(cfg.PolyMaxOscillators)
		v.Volume = newADSR(cfg.PolyVolAttackMs, cfg.PolyVolDecayMs, cfg.PolyVolReleaseMs, cfg.PolyVolSustainLevel, cfg.SampleRate)
		v.Filter = newADSR(cfg.PolyFilterAttackMs, cfg.PolyFilterDecayMs, cfg.PolyFilterReleaseMs, cfg.PolyFilterSustainLevel, cfg.SampleRate)
		pe.voices[i] = v
	}
	return pe
}

// RTBuffer exposes the engine's independent RT output buffer.
func (pe *PolyEngine) RTBuffer() *RTBuffer { return pe.rt }

func midiToFreq(note int) float64 {
	return 440.0 * math.Pow(2, (float64(note)-69)/12.0)
}

// NoteOn allocates by priority: idle voice, then quietest voice in
// release, then oldest active voice.
func (pe *PolyEngine) NoteOn(ev NoteOnEvent) {
	pe.nextTrigger++

	var target *Voice
	for _, v := range pe.voices {
		if v.Volume.idle() {
			target = v
			break
		}
	}
	if target == nil {
		var quietest *Voice
		for _, v := range pe.voices {
			if v.Volume.releasing() {
				if quietest == nil || v.Volume.level < quietest.Volume.level {
					quietest = v
				}
			}
		}
		target = quietest
	}
	if target == nil {
		var oldest *Voice
		for _, v := range pe.voices {
			if oldest == nil || v.triggerOrder < oldest.triggerOrder {
				oldest = v
			}
		}
		target = oldest
	}
	if target == nil {
		return
	}

	target.Note = ev.Note
	target.Velocity = ev.Velocity
	target.Fundamental = midiToFreq(ev.Note)
	target.triggerOrder = pe.nextTrigger
	for i := range target.PartialPhase {
		target.PartialPhase[i] = 0
	}
	target.Volume.triggerAttack()
	target.Filter.triggerAttack()
}

// NoteOff triggers release on the oldest matching non-idle voice, with a
// grace window that also matches an already-releasing voice for the same
// note.
func (pe *PolyEngine) NoteOff(ev NoteOffEvent) {
	var target *Voice
	for _, v := range pe.voices {
		if v.Note != ev.Note {
			continue
		}
		if v.Volume.idle() && v.graceBlocks <= 0 {
			continue
		}
		if target == nil || v.triggerOrder < target.triggerOrder {
			target = v
		}
	}
	if target != nil && !target.Volume.idle() {
		target.Volume.triggerRelease()
		target.Filter.triggerRelease()
	}
}

// spectralRolloff applies a low-pass-like per-partial gain for partial
// frequency f against the current filter cutoff.
func spectralRolloff(partialFreq, cutoff float64) float32 {
	if partialFreq <= cutoff {
		return 1
	}
	ratio := cutoff / partialFreq
	return float32(ratio * ratio)
}

// Render mixes numFrames of all active voices into left/right (cleared
// first), reading the current preprocessed polyphonic frame for
// per-partial amplitudes, harmonicity, detune, and inharmonicity.
func (pe *PolyEngine) Render(frame *PreprocessedFrame, numFrames int) {
	left := pe.scratchLeft[:numFrames]
	right := pe.scratchRight[:numFrames]
	for i := range left {
		left[i] = 0
		right[i] = 0
	}

	fs := float64(pe.sampleRate)
	dt := 1.0 / fs

	// Single global LFO, advanced once per sample regardless of how many
	// voices are active, modulating every voice's fundamental together.
	lfoMod := pe.lfoMod[:numFrames]
	for i := 0; i < numFrames; i++ {
		pe.lfoPhase += 2 * math.Pi * pe.lfoRateHz * dt
		if pe.lfoPhase > 2*math.Pi {
			pe.lfoPhase -= 2 * math.Pi
		}
		lfoSemitones := math.Sin(pe.lfoPhase) * pe.lfoDepthSemi
		lfoMod[i] = math.Pow(2, lfoSemitones/12.0)
	}

	for _, v := range pe.voices {
		if v.Volume.idle() {
			if v.graceBlocks > 0 {
				v.graceBlocks--
			}
			continue
		}
		for i := 0; i < numFrames; i++ {
			wasReleasing := v.Volume.releasing()
			volEnv := v.Volume.tick()
			filterEnv := v.Filter.tick()
			if wasReleasing && v.Volume.idle() {
				v.graceBlocks = noteOffGraceWindow
			}

			fundamental := v.Fundamental * lfoMod[i]

			cutoff := pe.filterCutoffHz + pe.filterEnvDepthHz*float64(filterEnv)

			var mono, pan float32
			n := pe.numPartials
			if n > len(frame.PolyMagnitudes) {
				n = len(frame.PolyMagnitudes)
			}
			for k := 0; k < n; k++ {
				class := classify(frame.PolyHarmonicity[k])
				mult := harmonicMultiplier(k, class, frame.PolyDetuneCents[k], frame.PolyInharmonicRatio[k])
				partialFreq := fundamental * mult
				if partialFreq > pe.highFreqHarmonicLimit {
					continue
				}

				v.PartialPhase[k] += 2 * math.Pi * partialFreq * dt
				if v.PartialPhase[k] > 2*math.Pi {
					v.PartialPhase[k] -= 2 * math.Pi
				}

				amp := frame.PolyMagnitudes[k]
				if pe.amplitudeGamma != 1 {
					amp = float32(math.Pow(float64(amp), float64(pe.amplitudeGamma)))
				}
				if amp < pe.minAudible {
					continue
				}
				rolloff := spectralRolloff(partialFreq, cutoff)
				sample := float32(math.Sin(v.PartialPhase[k])) * amp * rolloff
				mono += sample
				pan += (frame.PolyRightGains[k] - frame.PolyLeftGains[k]) * amp
			}

			out := mono * volEnv * v.Velocity * pe.masterVolume
			leftGain, rightGain := equalPowerPan(clampf32(pan, -1, 1))
			left[i] += out * leftGain
			right[i] += out * rightGain
		}
	}
}

// Publish writes the rendered block into the engine's own RT output
// buffer and atomically marks it ready, independent of the additive
// mixer's buffer.
func (pe *PolyEngine) Publish(numFrames int) {
	idx, outLeft, outRight := pe.rt.WriteSlot()
	copy(outLeft[:numFrames], pe.scratchLeft[:numFrames])
	copy(outRight[:numFrames], pe.scratchRight[:numFrames])
	pe.rt.Publish(idx)
}

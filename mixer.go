// mixer.go - Additive mixer: combine, normalize, limit, and publish.

package sp3ctra

import "math"

const mixerEpsilon = 1e-9

// tanhLUT is a per-Mixer lookup table for the soft limiter's tanh curve.
// Kept as an instance field, not a package-global cache: a process-global
// tanh cache would need locking or suffer false sharing across the single
// audio processing thread that owns it anyway, so there is nothing to share.
type tanhLUT struct {
	table []float32
	lo    float32
	hi    float32
	scale float32
}

func newTanhLUT(size int, lo, hi float32) *tanhLUT {
	t := &tanhLUT{table: make([]float32, size), lo: lo, hi: hi}
	t.scale = float32(size-1) / (hi - lo)
	for i := 0; i < size; i++ {
		x := lo + float32(i)*(hi-lo)/float32(size-1)
		t.table[i] = float32(math.Tanh(float64(x)))
	}
	return t
}

func (t *tanhLUT) eval(x float32) float32 {
	if x <= t.lo {
		return -1
	}
	if x >= t.hi {
		return 1
	}
	idxF := (x - t.lo) * t.scale
	idx := int(idxF)
	frac := idxF - float32(idx)
	if idx >= len(t.table)-1 {
		return t.table[len(t.table)-1]
	}
	return t.table[idx] + frac*(t.table[idx+1]-t.table[idx])
}

// Mixer combines worker partial sums into one stereo block and applies
// the summation-normalization curve, soft limiter, and contrast
// modulation.
type Mixer struct {
	ResponseExponent float32
	BaseLevel        float32
	SoftThreshold     float32
	SoftKnee          float32
	Prescale          float32
	Stereo            bool

	tanh *tanhLUT

	// fade is the anti-startup / hot-reload-regeneration fade (tau ~= 50ms),
	// a single-pole ramp toward fadeTarget.
	fadeAlpha  float32
	fadeLevel  float32
	fadeTarget float32
}

// NewMixer builds a mixer for the given sample rate and fade time
// constant; the fade starts at 0 and ramps to 1 (anti-startup fade).
func NewMixer(sampleRate int, fadeTauMs float64, cfg *Config) *Mixer {
	m := &Mixer{
		ResponseExponent: float32(cfg.SummationResponseExponent),
		BaseLevel:        float32(cfg.SummationBaseLevel),
		SoftThreshold:    float32(cfg.SoftLimitThreshold),
		SoftKnee:         float32(cfg.SoftLimitKnee),
		Prescale:         float32(cfg.SafetyPrescale),
		Stereo:           cfg.StereoEnabled,
		tanh:             newTanhLUT(4096, -4, 4),
		fadeTarget:       1,
	}
	tauS := fadeTauMs / 1000.0
	m.fadeAlpha = float32(1 - math.Exp(-1.0/(tauS*float64(sampleRate))))
	return m
}

// TriggerFade restarts the fade from 0, used when the waveform bank is
// hot-reloaded to suppress the regeneration click.
func (m *Mixer) TriggerFade() {
	m.fadeLevel = 0
	m.fadeTarget = 1
}

// softLimit applies a soft-knee limiter: beyond |x| > threshold,
// x -> sign(x) * (threshold + knee*tanh((|x|-threshold)/knee)).
func (m *Mixer) softLimit(x float32) float32 {
	sign := float32(1)
	if x < 0 {
		sign = -1
		x = -x
	}
	if x <= m.SoftThreshold {
		return sign * x
	}
	return sign * (m.SoftThreshold + m.SoftKnee*m.tanh.eval((x-m.SoftThreshold)/m.SoftKnee))
}

// contrastBaseGain is the minimum contrast-modulation gain: a perfectly
// uniform frame (contrastFactor 0) still produces audible output at this
// fraction of full level, rather than being gated to silence. Frames
// with spread scale up linearly to full gain at contrastFactor 1.
const contrastBaseGain = 0.5

// contrastGain maps the frame's spread-based contrast factor to the
// mixer's output gain.
func contrastGain(contrastFactor float32) float32 {
	return contrastBaseGain + (1-contrastBaseGain)*contrastFactor
}

// responseCurve implements the summation-normalization divisor:
// (sum_norm + base)^(1/exponent), with a sqrt fast path when
// the exponent is within epsilon of 2 (i.e. 1/exponent ~= 0.5).
func (m *Mixer) responseCurve(sumNorm float32) float32 {
	x := sumNorm + m.BaseLevel
	if x < mixerEpsilon {
		return mixerEpsilon
	}
	inv := 1.0 / m.ResponseExponent
	if float32(math.Abs(float64(inv-0.5))) < 1e-6 {
		return float32(math.Sqrt(float64(x)))
	}
	return float32(math.Pow(float64(x), float64(inv)))
}

// Combine sums workers' partial blocks, normalizes, limits, applies
// contrast and fade, hard-clips, and writes the result into outLeft/
// outRight (each already sized to blockSize). contrastFactor is the
// current frame's additive.contrast_factor.
func (m *Mixer) Combine(workers []*Worker, blockSize int, contrastFactor float32, outLeft, outRight []float32) {
	for i := 0; i < blockSize; i++ {
		var mono, left, right, maxEnv, sumEnv float32
		for _, w := range workers {
			mono += w.MonoSum[i]
			if m.Stereo {
				left += w.LeftSum[i]
				right += w.RightSum[i]
			}
			if w.MaxEnvelope[i] > maxEnv {
				maxEnv = w.MaxEnvelope[i]
			}
			sumEnv += w.SumEnvelope[i]
		}

		m.fadeLevel += m.fadeAlpha * (m.fadeTarget - m.fadeLevel)

		if sumEnv < mixerEpsilon {
			outLeft[i] = 0
			if m.Stereo {
				outRight[i] = 0
			} else {
				outRight[i] = 0
			}
			continue
		}

		response := m.responseCurve(sumEnv)

		gain := contrastGain(contrastFactor) * m.fadeLevel

		monoOut := (mono * m.Prescale) / response
		monoOut = m.softLimit(monoOut)
		monoOut *= gain
		outLeft[i] = clampf32(monoOut, -1, 1)

		if m.Stereo {
			lo := (left * m.Prescale) / response
			ro := (right * m.Prescale) / response
			lo = m.softLimit(lo) * gain
			ro = m.softLimit(ro) * gain
			outRight[i] = clampf32(ro, -1, 1)
			outLeft[i] = clampf32(lo, -1, 1)
		} else {
			outRight[i] = outLeft[i]
		}
	}
}

// note_bank.go - Per-note DSP state and envelope coefficient precomputation.

package sp3ctra

import (
	"math"
	"math/rand"
)

const (
	alphaMin = 1e-6
	decayMin = 1e-6
	decayMax = 1.0
)

// Note is the per-oscillator state. Frequency, AreaSize, OctaveCoeff and
// StartIndex are set at init and again when the waveform bank is
// regenerated, and are never mutated by the worker block path;
// current_index, current_volume and target_volume are mutated during
// each block only by the worker that owns this note.
type Note struct {
	Frequency   float64
	AreaSize    uint32
	OctaveCoeff uint32
	StartIndex  uint32

	CurrentIndex uint32

	CurrentVolume float32
	TargetVolume  float32

	AlphaUp           float32
	AlphaDownWeighted float32

	// Pan state, ramped linearly across a block to avoid zipper noise.
	LastLeftGain  float32
	LastRightGain float32
}

// NoteBank owns the per-note envelope state for the whole note range.
type NoteBank struct {
	Notes []Note

	tauUpS   float64
	tauDownS float64
	freqRef  float64
	beta     float64
	sampleRate int
}

// NewNoteBank initializes note state from waveform geometry, randomizing
// initial phase per note to avoid constructive startup artifacts.
func NewNoteBank(wb *WaveformBank, sampleRate int, tauUpMs, tauDownMs, freqRef, beta float64, rng *rand.Rand) *NoteBank {
	nb := &NoteBank{
		Notes:      make([]Note, len(wb.Notes)),
		tauUpS:     tauUpMs / 1000.0,
		tauDownS:   tauDownMs / 1000.0,
		freqRef:    freqRef,
		beta:       beta,
		sampleRate: sampleRate,
	}
	for i, g := range wb.Notes {
		nb.Notes[i] = Note{
			Frequency:    g.Frequency,
			AreaSize:     uint32(g.AreaSize),
			OctaveCoeff:  uint32(g.OctaveCoeff),
			StartIndex:   uint32(g.StartIndex),
			CurrentIndex: wb.RandomPhase(i, rng),
			LastLeftGain: float32(math.Sqrt2) / 2,
			LastRightGain: float32(math.Sqrt2) / 2,
		}
	}
	nb.RecomputeEnvelopeCoefficients(tauUpMs, tauDownMs, freqRef, beta)
	return nb
}

// RecomputeEnvelopeCoefficients precomputes alpha_up and
// alpha_down_weighted for every note. Called at init and whenever
// attack/release time constants change.
func (nb *NoteBank) RecomputeEnvelopeCoefficients(tauUpMs, tauDownMs, freqRef, beta float64) {
	nb.tauUpS = tauUpMs / 1000.0
	nb.tauDownS = tauDownMs / 1000.0
	nb.freqRef = freqRef
	nb.beta = beta

	fs := float64(nb.sampleRate)
	alphaUp := 1 - math.Exp(-1/(nb.tauUpS*fs))
	alphaUp = clamp(alphaUp, alphaMin, 1.0)
	alphaDownBase := 1 - math.Exp(-1/(nb.tauDownS*fs))

	for i := range nb.Notes {
		n := &nb.Notes[i]
		weighted := alphaDownBase * math.Pow(n.Frequency/freqRef, beta)
		weighted = clamp(weighted, decayMin, decayMax)
		n.AlphaUp = float32(alphaUp)
		n.AlphaDownWeighted = float32(weighted)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampf32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

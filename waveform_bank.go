// waveform_bank.go - Minimum-memory sinusoidal waveform table.
//
// Exactly one cycle per microtone step ("comma") of the reference
// (lowest) octave is stored; higher octaves reuse those cycles by
// striding with octave_coeff = 2^octave. Once built the table is
// read-only; regeneration is requested by storing a pending frequency
// range under the engine's mutex (not through an atomic flag) and is
// honored synchronously between audio blocks while workers are parked
// on the start barrier (see Engine.maybeRegenerateWaveform).

package sp3ctra

import (
	"math"
	"math/rand"
)

// NoteGeometry is the immutable per-note geometry derived from the
// waveform bank: its table offset, stride, and cycle length. NoteBank
// copies these into each Note at init.
type NoteGeometry struct {
	Frequency   float64
	StartIndex  int
	AreaSize    int
	OctaveCoeff int
}

// WaveformBank owns the shared, read-only sinusoidal table and the
// per-note geometry derived from it.
type WaveformBank struct {
	Table   []float32
	Notes   []NoteGeometry
	refLow  float64
	refHigh float64
	numRef  int
}

// waveformRange is the subset of parameters a hot-reload can change.
type waveformRange struct {
	LowFrequency  float64
	HighFrequency float64
}

// BuildWaveformBank generates the table and note geometry deterministically
// from (low, high, numNotes, sampleRate, commasPerOctave). Re-invoking with
// the same arguments produces a bit-identical table.
func BuildWaveformBank(low, high float64, numNotes, sampleRate, commasPerOctave int) *WaveformBank {
	if commasPerOctave < 1 {
		commasPerOctave = 1
	}
	refLow := low
	refCycleLen := make([]int, commasPerOctave)
	startIndex := make([]int, commasPerOctave)
	total := 0
	for c := 0; c < commasPerOctave; c++ {
		commaFreq := refLow * math.Pow(2, float64(c)/float64(commasPerOctave))
		length := int(math.Round(float64(sampleRate) / commaFreq))
		if length < 2 {
			length = 2
		}
		refCycleLen[c] = length
		startIndex[c] = total
		total += length
	}

	table := make([]float32, total)
	for c := 0; c < commasPerOctave; c++ {
		commaFreq := refLow * math.Pow(2, float64(c)/float64(commasPerOctave))
		length := refCycleLen[c]
		off := startIndex[c]
		for i := 0; i < length; i++ {
			phase := 2 * math.Pi * float64(i) / float64(length)
			_ = commaFreq
			table[off+i] = float32(math.Sin(phase))
		}
	}

	notes := make([]NoteGeometry, numNotes)
	for n := 0; n < numNotes; n++ {
		var freq float64
		if numNotes == 1 {
			freq = low
		} else {
			t := float64(n) / float64(numNotes-1)
			freq = low * math.Pow(high/low, t)
		}

		totalCommas := math.Log2(freq/refLow) * float64(commasPerOctave)
		rounded := int(math.Round(totalCommas))
		octave := rounded / commasPerOctave
		c := rounded % commasPerOctave
		if c < 0 {
			c += commasPerOctave
			octave--
		}
		if octave < 0 {
			octave = 0
		}
		octaveCoeff := 1 << uint(octave)
		// The note plays the comma-quantized pitch; record that pitch.
		freq = refLow * math.Pow(2, float64(octave)+float64(c)/float64(commasPerOctave))

		// area_size is the length of the stored reference-octave cycle
		// for this comma; current_index ranges over [0, area_size) and
		// is advanced by octave_coeff per sample, so the note's actual
		// period in samples is area_size / octave_coeff, matching
		// round(sample_rate / frequency) for this note's own pitch.
		areaSize := refCycleLen[c]
		if areaSize < 2 {
			areaSize = 2
		}

		notes[n] = NoteGeometry{
			Frequency:   freq,
			StartIndex:  startIndex[c],
			AreaSize:    areaSize,
			OctaveCoeff: octaveCoeff,
		}
	}

	return &WaveformBank{
		Table:   table,
		Notes:   notes,
		refLow:  low,
		refHigh: high,
		numRef:  commasPerOctave,
	}
}

// RandomPhase returns a uniformly random starting index in [0, areaSize)
// for note n, used at init to randomize initial phases and avoid
// constructive startup artifacts.
func (wb *WaveformBank) RandomPhase(n int, rng *rand.Rand) uint32 {
	area := wb.Notes[n].AreaSize
	if area <= 0 {
		return 0
	}
	return uint32(rng.Intn(area))
}

// Sample returns the table value at a given current_index for note n.
// current_index already incorporates the octave stride (it is advanced
// by octave_coeff per sample by the worker), so the table read is a
// direct offset.
func (wb *WaveformBank) Sample(n int, phaseIndex uint32) float32 {
	g := wb.Notes[n]
	return wb.Table[g.StartIndex+int(phaseIndex)]
}

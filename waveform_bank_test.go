package sp3ctra

import (
	"math"
	"math/rand"
	"testing"

	"pgregory.net/rapid"
)

func TestBuildWaveformBank_NoteCount(t *testing.T) {
	wb := BuildWaveformBank(55, 880, 64, 48000, 12)
	if len(wb.Notes) != 64 {
		t.Fatalf("got %d notes, want 64", len(wb.Notes))
	}
}

func TestBuildWaveformBank_FrequencyRangeOrdering(t *testing.T) {
	wb := BuildWaveformBank(55, 880, 16, 48000, 12)
	for i := 1; i < len(wb.Notes); i++ {
		if wb.Notes[i].Frequency <= wb.Notes[i-1].Frequency {
			t.Fatalf("note %d frequency %v not > note %d frequency %v", i, wb.Notes[i].Frequency, i-1, wb.Notes[i-1].Frequency)
		}
	}
}

func TestBuildWaveformBank_PeriodMatchesFrequency(t *testing.T) {
	sampleRate := 48000
	wb := BuildWaveformBank(55, 880, 32, sampleRate, 12)
	for i, g := range wb.Notes {
		period := float64(g.AreaSize) / float64(g.OctaveCoeff)
		want := math.Round(float64(sampleRate) / g.Frequency)
		if math.Abs(period-want) > 1 {
			t.Fatalf("note %d: period %v samples, want ~%v (freq %v)", i, period, want, g.Frequency)
		}
	}
}

func TestSample_Deterministic(t *testing.T) {
	wb := BuildWaveformBank(55, 880, 8, 48000, 12)
	a := wb.Sample(0, 5)
	b := wb.Sample(0, 5)
	if a != b {
		t.Fatalf("Sample not deterministic: %v != %v", a, b)
	}
}

func TestPhaseAdvance_WrapsModuloAreaSize(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		wb := BuildWaveformBank(55, 880, 16, 48000, 12)
		n := rapid.IntRange(0, len(wb.Notes)-1).Draw(rt, "n")
		g := wb.Notes[n]
		blockSize := rapid.IntRange(1, 512).Draw(rt, "blockSize")

		phase := uint32(0)
		for i := 0; i < blockSize; i++ {
			phase = (phase + uint32(g.OctaveCoeff)) % uint32(g.AreaSize)
		}
		want := (uint32(blockSize) * uint32(g.OctaveCoeff)) % uint32(g.AreaSize)
		if phase != want {
			t.Fatalf("phase accumulator %d != expected %d", phase, want)
		}
	})
}

func TestRandomPhase_WithinAreaSize(t *testing.T) {
	wb := BuildWaveformBank(55, 880, 8, 48000, 12)
	rng := rand.New(rand.NewSource(42))
	for n := range wb.Notes {
		for i := 0; i < 50; i++ {
			p := wb.RandomPhase(n, rng)
			if int(p) >= wb.Notes[n].AreaSize {
				t.Fatalf("note %d: random phase %d >= area_size %d", n, p, wb.Notes[n].AreaSize)
			}
		}
	}
}

package sp3ctra

import (
	"math/rand"
	"testing"
)

func TestNewNoteBank_InitialState(t *testing.T) {
	wb := BuildWaveformBank(55, 880, 16, 48000, 12)
	nb := NewNoteBank(wb, 48000, 10, 200, 440, 0.3, rand.New(rand.NewSource(1)))

	if len(nb.Notes) != len(wb.Notes) {
		t.Fatalf("got %d notes, want %d", len(nb.Notes), len(wb.Notes))
	}
	for i, n := range nb.Notes {
		if n.CurrentVolume != 0 {
			t.Fatalf("note %d: initial volume %v, want 0", i, n.CurrentVolume)
		}
		if n.AlphaUp <= 0 || n.AlphaUp > 1 {
			t.Fatalf("note %d: alpha_up out of range: %v", i, n.AlphaUp)
		}
	}
}

func TestRecomputeEnvelopeCoefficients_HighPartialsDecayFaster(t *testing.T) {
	wb := BuildWaveformBank(55, 880, 32, 48000, 12)
	nb := NewNoteBank(wb, 48000, 10, 200, 440, 0.3, rand.New(rand.NewSource(1)))

	low := nb.Notes[0].AlphaDownWeighted
	high := nb.Notes[len(nb.Notes)-1].AlphaDownWeighted
	if high <= low {
		t.Fatalf("expected higher partial to have faster (larger) decay alpha: low=%v high=%v", low, high)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ v, lo, hi, want float64 }{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
	}
	for _, c := range cases {
		if got := clamp(c.v, c.lo, c.hi); got != c.want {
			t.Fatalf("clamp(%v, %v, %v) = %v, want %v", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

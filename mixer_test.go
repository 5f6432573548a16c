package sp3ctra

import (
	"math"
	"testing"
)

func testMixerConfig() *Config {
	cfg := DefaultConfig()
	return &cfg
}

func TestMixer_SilentInputProducesSilentOutput(t *testing.T) {
	cfg := testMixerConfig()
	m := NewMixer(48000, 50, cfg)
	m.fadeLevel = 1 // skip the anti-startup fade for this assertion

	w := NewWorker(0, 1, 16)
	outL := make([]float32, 16)
	outR := make([]float32, 16)
	m.Combine([]*Worker{w}, 16, 1, outL, outR)

	for i, v := range outL {
		if v != 0 {
			t.Fatalf("sample %d: got %v, want 0 for all-zero input", i, v)
		}
	}
}

func TestMixer_HardClipsToUnitRange(t *testing.T) {
	cfg := testMixerConfig()
	cfg.StereoEnabled = false // outL comes from the mono sum filled below
	m := NewMixer(48000, 50, cfg)
	m.fadeLevel = 1

	w := NewWorker(0, 1, 4)
	for i := range w.MonoSum {
		w.MonoSum[i] = 100
		w.SumEnvelope[i] = 0.01 // tiny response divisor, large normalized output
	}
	outL := make([]float32, 4)
	outR := make([]float32, 4)
	m.Combine([]*Worker{w}, 4, 1, outL, outR)

	for i, v := range outL {
		if v > 1.0001 || v < -1.0001 {
			t.Fatalf("sample %d: %v outside [-1,1]", i, v)
		}
	}
}

func TestTanhLUT_MatchesMathTanhWithinTolerance(t *testing.T) {
	lut := newTanhLUT(4096, -4, 4)
	for _, x := range []float32{-3, -1, -0.1, 0, 0.1, 1, 3} {
		want := math.Tanh(float64(x))
		got := float64(lut.eval(x))
		if math.Abs(got-want) > 1e-3 {
			t.Fatalf("tanh(%v): lut=%v math=%v, diff too large", x, got, want)
		}
	}
}

func TestResponseCurve_SqrtFastPathMatchesGeneralPath(t *testing.T) {
	cfg := testMixerConfig()
	cfg.SummationResponseExponent = 2.0
	m := NewMixer(48000, 50, cfg)

	general := float32(math.Pow(float64(0.5+m.BaseLevel), 0.5))
	got := m.responseCurve(0.5)
	if math.Abs(float64(got-general)) > 1e-5 {
		t.Fatalf("sqrt fast path = %v, general formula = %v", got, general)
	}
}

package sp3ctra

import "testing"

func rowOf(n int, r, g, b byte) ImageRow {
	row := ImageRow{R: make([]byte, n), G: make([]byte, n), B: make([]byte, n)}
	for i := 0; i < n; i++ {
		row.R[i], row.G[i], row.B[i] = r, g, b
	}
	return row
}

func TestPreprocessor_BlackRowIsZeroTarget(t *testing.T) {
	p := NewPreprocessor(4, 2, 1.0, 2)
	frame := newPreprocessedFrame(4, 2)
	p.Process(rowOf(8, 0, 0, 0), frame, 0)

	for i, v := range frame.AdditiveNotes {
		if v > 0.01 {
			t.Fatalf("note %d: target %v, want ~0.0 for a black row", i, v)
		}
	}
}

func TestPreprocessor_WhiteRowIsMaximumTarget(t *testing.T) {
	p := NewPreprocessor(4, 2, 1.0, 2)
	frame := newPreprocessedFrame(4, 2)
	p.Process(rowOf(8, 255, 255, 255), frame, 0)

	for i, v := range frame.AdditiveNotes {
		if v < 0.99 {
			t.Fatalf("note %d: target %v, want ~1.0 for a white row", i, v)
		}
	}
}

func TestPreprocessor_PanCentredForNeutralColor(t *testing.T) {
	p := NewPreprocessor(4, 2, 1.0, 2)
	frame := newPreprocessedFrame(4, 2)
	p.Process(rowOf(8, 128, 128, 128), frame, 0)

	for i, g := range frame.LeftGains {
		if diff := g - frame.RightGains[i]; diff > 1e-3 || diff < -1e-3 {
			t.Fatalf("note %d: left/right gain not balanced for neutral color: %v vs %v", i, g, frame.RightGains[i])
		}
	}
}

func TestPreprocessor_ConstantRowHasZeroContrast(t *testing.T) {
	p := NewPreprocessor(4, 2, 1.0, 2)
	frame := newPreprocessedFrame(4, 2)
	p.Process(rowOf(8, 100, 100, 100), frame, 0)

	if frame.ContrastFactor > 0.01 {
		t.Fatalf("constant-intensity row should have ~0 contrast, got %v", frame.ContrastFactor)
	}
}

func TestEqualPowerPan_CenterIsUnityPower(t *testing.T) {
	l, r := equalPowerPan(0)
	sum := l*l + r*r
	if sum < 0.99 || sum > 1.01 {
		t.Fatalf("equal-power pan at center: l^2+r^2 = %v, want ~1.0", sum)
	}
}

func TestEqualPowerPan_ExtremesIsolateChannel(t *testing.T) {
	l, r := equalPowerPan(-1)
	if r > 0.01 {
		t.Fatalf("full-left pan should produce ~0 right gain, got %v", r)
	}
	l2, r2 := equalPowerPan(1)
	if l2 > 0.01 {
		t.Fatalf("full-right pan should produce ~0 left gain, got %v", l2)
	}
	_ = r
}

package sp3ctra

import "testing"

func TestParamRegistry_RouteDispatchesToNamedCallback(t *testing.T) {
	r := NewParamRegistry()
	r.Map(74, 0, ParamDescriptor{Name: "cutoff", Scale: ScaleLinear, Min: 200, Max: 8000})

	var gotNorm, gotRaw float64
	called := 0
	r.RegisterCallback("cutoff", func(norm, raw float64) {
		called++
		gotNorm, gotRaw = norm, raw
	})

	r.Route(ControlChangeEvent{Channel: 0, Controller: 74, Value: 127})
	if called != 1 {
		t.Fatalf("callback called %d times, want 1", called)
	}
	if gotNorm < 0.99 || gotNorm > 1.0001 {
		t.Fatalf("normalized = %v, want ~1.0", gotNorm)
	}
	if gotRaw < 7999 || gotRaw > 8001 {
		t.Fatalf("raw = %v, want ~8000", gotRaw)
	}
}

func TestParamRegistry_UnmappedCCIsIgnored(t *testing.T) {
	r := NewParamRegistry()
	called := false
	r.RegisterCallback("cutoff", func(float64, float64) { called = true })
	r.Route(ControlChangeEvent{Channel: 0, Controller: 1, Value: 64})
	if called {
		t.Fatal("callback fired for an unmapped controller")
	}
}

func TestScaleValue_Log(t *testing.T) {
	desc := ParamDescriptor{Scale: ScaleLog, Min: 20, Max: 20000}
	got := scaleValue(desc, 0)
	if got < 19.9 || got > 20.1 {
		t.Fatalf("log scale at 0 = %v, want ~20", got)
	}
	got = scaleValue(desc, 1)
	if got < 19990 || got > 20010 {
		t.Fatalf("log scale at 1 = %v, want ~20000", got)
	}
}

func TestScaleValue_Discrete(t *testing.T) {
	desc := ParamDescriptor{Scale: ScaleDiscrete, Min: 0, Max: 4, Steps: 4}
	got := scaleValue(desc, 0.5)
	if got != 2 {
		t.Fatalf("discrete scale at 0.5 with 4 steps = %v, want 2", got)
	}
}

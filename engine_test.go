package sp3ctra

import "testing"

func testEngineConfig() Config {
	cfg := DefaultConfig()
	cfg.NumNotes = 8
	cfg.NumWorkers = 2
	cfg.PolyNumVoices = 2
	cfg.PolyMaxOscillators = 4
	cfg.MaxBufferSize = 256
	cfg.AudioBufferSize = 64
	return cfg
}

func TestEngine_NewValidatesConfig(t *testing.T) {
	cfg := testEngineConfig()
	cfg.SampleRate = 12345 // unsupported
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected an error for an unsupported sample rate")
	}
}

func TestEngine_ProcessProducesBoundedOutput(t *testing.T) {
	e, err := New(testEngineConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Release()

	row := ImageRow{R: make([]byte, 8), G: make([]byte, 8), B: make([]byte, 8)}
	for i := range row.R {
		row.R[i], row.G[i], row.B[i] = 10, 200, 10
	}
	e.PushRow(row, 0)

	left := make([]float32, 64)
	right := make([]float32, 64)
	for block := 0; block < 5; block++ {
		e.Process(left, right)
	}

	for i, v := range left {
		if v > 1.0001 || v < -1.0001 {
			t.Fatalf("sample %d out of [-1,1]: %v", i, v)
		}
		_ = right[i]
	}
}

func TestEngine_NoteOnNoteOffDoesNotPanic(t *testing.T) {
	e, err := New(testEngineConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Release()

	e.NoteOn(NoteOnEvent{Note: 60, Velocity: 1})
	left := make([]float32, 64)
	right := make([]float32, 64)
	e.Process(left, right)
	e.NoteOff(NoteOffEvent{Note: 60})
	e.Process(left, right)
}

func TestEngine_UpdateConfigTriggersWaveformRegeneration(t *testing.T) {
	e, err := New(testEngineConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Release()

	oldBank := e.waveform
	newLow := 110.0
	e.UpdateConfig(ConfigPatch{LowFrequency: &newLow})

	left := make([]float32, 64)
	right := make([]float32, 64)
	e.Process(left, right) // regeneration is honored synchronously inside Process

	if e.waveform == oldBank {
		t.Fatal("waveform bank should have been regenerated after a frequency-range UpdateConfig")
	}
}

func TestEngine_ControlChangeRoutesToRegisteredParam(t *testing.T) {
	e, err := New(testEngineConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Release()

	called := false
	e.Params().RegisterCallback("poly_master_volume", func(float64, float64) { called = true })
	e.Params().Map(7, 0, ParamDescriptor{Name: "poly_master_volume", Scale: ScaleLinear, Min: 0, Max: 1})
	e.ControlChange(ControlChangeEvent{Channel: 0, Controller: 7, Value: 64})

	if !called {
		t.Fatal("ControlChange did not reach the registered callback")
	}
}

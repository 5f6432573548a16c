package sp3ctra

import "testing"

func testPolyConfig() *Config {
	cfg := DefaultConfig()
	cfg.PolyNumVoices = 2
	cfg.PolyMaxOscillators = 4
	return &cfg
}

func TestPolyEngine_NoteOnAllocatesIdleVoiceFirst(t *testing.T) {
	pe := NewPolyEngine(testPolyConfig(), 64)
	pe.NoteOn(NoteOnEvent{Note: 60, Velocity: 1})

	found := false
	for _, v := range pe.voices {
		if v.Note == 60 && v.Volume.active() {
			found = true
		}
	}
	if !found {
		t.Fatal("NoteOn did not activate any voice for note 60")
	}
}

func TestPolyEngine_NoteOnStealsOldestWhenPoolFull(t *testing.T) {
	pe := NewPolyEngine(testPolyConfig(), 64)
	pe.NoteOn(NoteOnEvent{Note: 60, Velocity: 1})
	pe.NoteOn(NoteOnEvent{Note: 61, Velocity: 1})
	pe.NoteOn(NoteOnEvent{Note: 62, Velocity: 1}) // pool has 2 voices, should steal oldest (note 60)

	notes := map[int]bool{}
	for _, v := range pe.voices {
		notes[v.Note] = true
	}
	if notes[60] {
		t.Fatal("oldest voice (note 60) should have been stolen for note 62")
	}
	if !notes[61] || !notes[62] {
		t.Fatalf("expected notes 61 and 62 active, got %v", notes)
	}
}

func TestPolyEngine_NoteOffTriggersReleaseOnMatchingVoice(t *testing.T) {
	pe := NewPolyEngine(testPolyConfig(), 64)
	pe.NoteOn(NoteOnEvent{Note: 60, Velocity: 1})
	pe.NoteOff(NoteOffEvent{Note: 60})

	for _, v := range pe.voices {
		if v.Note == 60 {
			if v.Volume.stage != StageRelease && v.Volume.stage != StageAttack {
				t.Fatalf("expected release (or still-attacking pre-tick) stage, got %v", v.Volume.stage)
			}
		}
	}
}

func TestPolyEngine_NoteOffGraceWindowMatchesRecentlyIdledVoice(t *testing.T) {
	pe := NewPolyEngine(testPolyConfig(), 64)
	v := pe.voices[0]
	v.Note = 60
	v.Volume.stage = StageIdle
	v.graceBlocks = 2

	pe.NoteOff(NoteOffEvent{Note: 60})
	if v.Volume.stage != StageIdle {
		t.Fatalf("idle voice (even in grace window) must not be re-triggered into release, got %v", v.Volume.stage)
	}
}

func TestSpectralRolloff_UnityBelowCutoff(t *testing.T) {
	if got := spectralRolloff(1000, 4000); got != 1 {
		t.Fatalf("rolloff below cutoff = %v, want 1", got)
	}
}

func TestSpectralRolloff_AttenuatesAboveCutoff(t *testing.T) {
	got := spectralRolloff(8000, 4000)
	want := float32(0.25) // (4000/8000)^2
	if got < want-1e-6 || got > want+1e-6 {
		t.Fatalf("rolloff above cutoff = %v, want %v", got, want)
	}
}

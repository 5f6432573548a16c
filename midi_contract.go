// midi_contract.go - MIDI input contract.
//
// MIDI input is an external collaborator: this module defines the event
// shapes and the registry the polyphonic engine and parameter registry
// consume, but does not bind to any concrete MIDI transport.

package sp3ctra

// MIDIEvent is the common interface satisfied by every MIDI event type
// the core consumes.
type MIDIEvent interface{ isMIDIEvent() }

// NoteOnEvent allocates/steals a voice and triggers attack on both
// envelopes.
type NoteOnEvent struct {
	Note     int
	Velocity float32
}

func (NoteOnEvent) isMIDIEvent() {}

// NoteOffEvent triggers release on the oldest matching non-idle voice,
// with a grace window (handled in PolyEngine.NoteOff) that also matches
// an already-releasing or recently-idle voice to tolerate races between
// ADSR completion and late note-offs.
type NoteOffEvent struct {
	Note int
}

func (NoteOffEvent) isMIDIEvent() {}

// ControlChangeEvent is routed via ParamRegistry's (controller, channel)
// -> named parameter mapping.
type ControlChangeEvent struct {
	Channel    int
	Controller int
	Value      int // 0-127 raw MIDI value
}

func (ControlChangeEvent) isMIDIEvent() {}

// MIDISource is the contract a concrete MIDI transport adapter
// implements; this module ships no implementation of it, and
// cmd/sp3ctrad does not wire a MIDI source.
type MIDISource interface {
	Events() <-chan MIDIEvent
}

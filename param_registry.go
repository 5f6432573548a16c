// param_registry.go - Control Change routing.
//
// A runtime (controller, channel) -> named parameter map with a
// declared scaling curve, in place of fixed register-address dispatch.

package sp3ctra

import "math"

// ScaleKind is the declared scaling applied between a CC's normalized
// [0,1] value and its raw-unit value.
type ScaleKind int

const (
	ScaleLinear ScaleKind = iota
	ScaleLog
	ScaleExp
	ScaleDiscrete
)

// ParamDescriptor describes one named, CC-routable parameter.
type ParamDescriptor struct {
	Name  string
	Scale ScaleKind
	Min   float64
	Max   float64
	Steps int // only meaningful for ScaleDiscrete
}

// ParamCallback receives both the normalized [0,1] value and the scaled
// raw-unit value whenever its parameter is routed.
type ParamCallback func(normalized, raw float64)

type ccKey struct {
	Controller int
	Channel    int
}

// ParamRegistry maps (controller, channel) pairs to named parameters and
// dispatches registered callbacks on each Control Change.
type ParamRegistry struct {
	mappings  map[ccKey]ParamDescriptor
	callbacks map[string][]ParamCallback
}

// NewParamRegistry returns an empty registry.
func NewParamRegistry() *ParamRegistry {
	return &ParamRegistry{
		mappings:  make(map[ccKey]ParamDescriptor),
		callbacks: make(map[string][]ParamCallback),
	}
}

// Map registers a (controller, channel) -> parameter mapping.
func (r *ParamRegistry) Map(controller, channel int, desc ParamDescriptor) {
	r.mappings[ccKey{controller, channel}] = desc
}

// RegisterCallback attaches a callback to a named parameter, independent
// of which (controller, channel) pair(s) are currently mapped to it.
func (r *ParamRegistry) RegisterCallback(name string, cb ParamCallback) {
	r.callbacks[name] = append(r.callbacks[name], cb)
}

// scaleValue converts a normalized [0,1] value to raw units per desc.Scale.
func scaleValue(desc ParamDescriptor, normalized float64) float64 {
	switch desc.Scale {
	case ScaleLog:
		if desc.Min <= 0 {
			desc.Min = 1e-6
		}
		ratio := desc.Max / desc.Min
		return desc.Min * math.Pow(ratio, normalized)
	case ScaleExp:
		return desc.Min + (desc.Max-desc.Min)*normalized*normalized
	case ScaleDiscrete:
		steps := desc.Steps
		if steps < 1 {
			steps = 1
		}
		step := math.Round(normalized * float64(steps))
		return desc.Min + (desc.Max-desc.Min)*(step/float64(steps))
	default: // ScaleLinear
		return desc.Min + (desc.Max-desc.Min)*normalized
	}
}

// Route dispatches a Control Change event to every callback registered
// for the parameter its (controller, channel) pair maps to.
func (r *ParamRegistry) Route(ev ControlChangeEvent) {
	desc, ok := r.mappings[ccKey{ev.Controller, ev.Channel}]
	if !ok {
		return
	}
	normalized := float64(ev.Value) / 127.0
	raw := scaleValue(desc, normalized)
	for _, cb := range r.callbacks[desc.Name] {
		cb(normalized, raw)
	}
}

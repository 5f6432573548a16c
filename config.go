// config.go - Configuration surface for the Sp3ctra synthesis core.
//
// Configuration is read-only at startup with the single exception of the
// additive bank's frequency range, which supports a hot-reload path.
// All other runtime-settable parameters
// flow through Engine.UpdateConfig; SampleRate, NumWorkers and anything
// that changes fixed-size scratch sizing are fixed when New builds the
// Engine.

package sp3ctra

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full enumerated configuration surface of the core.
type Config struct {
	// Audio
	SampleRate      int  `yaml:"sampling_frequency"`
	AudioBufferSize int  `yaml:"audio_buffer_size"`
	StereoEnabled   bool `yaml:"stereo_mode_enabled"`
	MaxBufferSize   int  `yaml:"max_buffer_size"`

	// Additive bank
	LowFrequency     float64 `yaml:"low_frequency"`
	HighFrequency    float64 `yaml:"high_frequency"`
	CommaPerSemitone int     `yaml:"comma_per_semitone"`
	SemitonePerOctave int    `yaml:"semitone_per_octave"`
	PixelsPerNote    int     `yaml:"pixels_per_note"`
	NumNotes         int     `yaml:"num_notes"`
	GammaCorrection  float64 `yaml:"gamma_correction"`

	// Envelope
	TauUpBaseMs    float64 `yaml:"tau_up_base_ms"`
	TauDownBaseMs  float64 `yaml:"tau_down_base_ms"`
	DecayFreqRefHz float64 `yaml:"decay_freq_ref_hz"`
	DecayFreqBeta  float64 `yaml:"decay_freq_beta"`

	// Mixer
	SummationResponseExponent float64 `yaml:"summation_response_exponent"`
	SummationBaseLevel        float64 `yaml:"summation_base_level"`
	VolumeWeightingExponent   float64 `yaml:"volume_weighting_exponent"`
	SoftLimitThreshold        float64 `yaml:"soft_limit_threshold"`
	SoftLimitKnee             float64 `yaml:"soft_limit_knee"`
	SafetyPrescale            float64 `yaml:"safety_prescale"`
	FadeTauMs                 float64 `yaml:"fade_tau_ms"`

	// Concurrency
	NumWorkers int `yaml:"num_workers"`

	// Polyphonic
	PolyNumVoices              int     `yaml:"poly_num_voices"`
	PolyMaxOscillators         int     `yaml:"poly_max_oscillators"`
	PolyVolAttackMs            float64 `yaml:"poly_vol_attack_ms"`
	PolyVolDecayMs             float64 `yaml:"poly_vol_decay_ms"`
	PolyVolSustainLevel        float64 `yaml:"poly_vol_sustain_level"`
	PolyVolReleaseMs           float64 `yaml:"poly_vol_release_ms"`
	PolyFilterAttackMs         float64 `yaml:"poly_filter_attack_ms"`
	PolyFilterDecayMs          float64 `yaml:"poly_filter_decay_ms"`
	PolyFilterSustainLevel     float64 `yaml:"poly_filter_sustain_level"`
	PolyFilterReleaseMs        float64 `yaml:"poly_filter_release_ms"`
	PolyFilterCutoffHz         float64 `yaml:"poly_filter_cutoff_hz"`
	PolyFilterEnvDepthHz       float64 `yaml:"poly_filter_env_depth_hz"`
	PolyLFORateHz              float64 `yaml:"poly_lfo_rate_hz"`
	PolyLFODepthSemitones      float64 `yaml:"poly_lfo_depth_semitones"`
	PolyAmplitudeGamma         float64 `yaml:"poly_amplitude_gamma"`
	PolyMinAudibleAmplitude    float64 `yaml:"poly_min_audible_amplitude"`
	PolyMasterVolume           float64 `yaml:"poly_master_volume"`
	PolyHighFreqHarmonicLimitHz float64 `yaml:"poly_high_freq_harmonic_limit_hz"`
}

// supportedSampleRates lists the supported sample rate band (44.1-96kHz).
var supportedSampleRates = map[int]bool{
	44100: true,
	48000: true,
	88200: true,
	96000: true,
}

// DefaultConfig returns a Config populated with sensible reference values
// for a standalone run.
func DefaultConfig() Config {
	return Config{
		SampleRate:        48000,
		AudioBufferSize:   128,
		StereoEnabled:     true,
		MaxBufferSize:     4096,
		LowFrequency:      55.0,
		HighFrequency:     880.0,
		CommaPerSemitone:  1,
		SemitonePerOctave: 12,
		PixelsPerNote:     1,
		NumNotes:          64,
		GammaCorrection:   1.0,
		TauUpBaseMs:       10,
		TauDownBaseMs:     200,
		DecayFreqRefHz:    440,
		DecayFreqBeta:     0.3,

		SummationResponseExponent: 2.0,
		SummationBaseLevel:        0.05,
		VolumeWeightingExponent:   1.5,
		SoftLimitThreshold:        0.85,
		SoftLimitKnee:             0.15,
		SafetyPrescale:            0.35,
		FadeTauMs:                 50,

		NumWorkers: 4,

		PolyNumVoices:               8,
		PolyMaxOscillators:          16,
		PolyVolAttackMs:             5,
		PolyVolDecayMs:              80,
		PolyVolSustainLevel:         0.7,
		PolyVolReleaseMs:            250,
		PolyFilterAttackMs:          20,
		PolyFilterDecayMs:           150,
		PolyFilterSustainLevel:      0.5,
		PolyFilterReleaseMs:         300,
		PolyFilterCutoffHz:          4000,
		PolyFilterEnvDepthHz:        3000,
		PolyLFORateHz:               5,
		PolyLFODepthSemitones:       0.1,
		PolyAmplitudeGamma:          1.0,
		PolyMinAudibleAmplitude:     1e-4,
		PolyMasterVolume:            0.8,
		PolyHighFreqHarmonicLimitHz: 12000,
	}
}

// Validate checks the configuration for invalid values; invalid values
// and unsupported sample rates are fatal at startup.
func (c *Config) Validate() error {
	if !supportedSampleRates[c.SampleRate] {
		return newConfigErr("unsupported sample rate %d", c.SampleRate)
	}
	if c.NumNotes < 1 {
		return newConfigErr("num_notes must be >= 1, got %d", c.NumNotes)
	}
	if c.LowFrequency <= 0 || c.HighFrequency <= 0 {
		return newConfigErr("frequencies must be positive")
	}
	if c.LowFrequency >= c.HighFrequency {
		return newConfigErr("low_frequency (%v) must be < high_frequency (%v)", c.LowFrequency, c.HighFrequency)
	}
	if c.NumWorkers < 1 {
		return newConfigErr("num_workers must be >= 1, got %d", c.NumWorkers)
	}
	if c.AudioBufferSize < 1 {
		return newConfigErr("audio_buffer_size must be >= 1")
	}
	if c.MaxBufferSize < c.AudioBufferSize {
		return newConfigErr("max_buffer_size (%d) must be >= audio_buffer_size (%d)", c.MaxBufferSize, c.AudioBufferSize)
	}
	if c.CommaPerSemitone < 1 || c.SemitonePerOctave < 1 {
		return newConfigErr("comma_per_semitone and semitone_per_octave must be >= 1")
	}
	if c.PixelsPerNote < 1 {
		return newConfigErr("pixels_per_note must be >= 1")
	}
	if c.GammaCorrection <= 0 {
		return newConfigErr("gamma_correction must be > 0")
	}
	if c.SummationResponseExponent <= 0 {
		return newConfigErr("summation_response_exponent must be > 0")
	}
	if c.SoftLimitKnee <= 0 {
		return newConfigErr("soft_limit_knee must be > 0")
	}
	if c.PolyNumVoices < 0 {
		return newConfigErr("poly_num_voices must be >= 0")
	}
	if c.PolyMaxOscillators < 0 {
		return newConfigErr("poly_max_oscillators must be >= 0")
	}
	return nil
}

// LoadConfig reads a YAML configuration file, applies it on top of
// DefaultConfig, and validates the result. Configuration loading is an
// external collaborator; this helper exists so cmd/sp3ctrad and tests can
// exercise the full pipeline uniformly.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newResourceErr("reading config file %q: %v", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, newConfigErr("parsing config file %q: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigPatch carries a sparse set of hot-settable parameter updates for
// Engine.UpdateConfig. Nil fields are left unchanged.
type ConfigPatch struct {
	LowFrequency  *float64
	HighFrequency *float64

	TauUpBaseMs   *float64
	TauDownBaseMs *float64

	SummationResponseExponent *float64
	SummationBaseLevel        *float64
	VolumeWeightingExponent   *float64
	SoftLimitThreshold        *float64
	SoftLimitKnee             *float64

	PolyMasterVolume *float64
	PolyLFORateHz    *float64
}

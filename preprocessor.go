// preprocessor.go - Converts one RGB image row into a PreprocessedFrame.
//
// Runs at image rate only (~50Hz), never on the audio callback. Writes
// into the frame it is given; Engine.PushRow passes the inactive slot of
// the FrameBuffer and toggles the active slot on completion.

package sp3ctra

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ImageRow is one scanline: three parallel byte arrays of identical
// length, one per color channel.
type ImageRow struct {
	R []byte
	G []byte
	B []byte
}

// Preprocessor holds the scratch state needed to derive a
// PreprocessedFrame from an ImageRow without allocating per row.
type Preprocessor struct {
	numNotes      int
	pixelsPerNote int
	gamma         float64
	numPoly       int

	gray    []float32
	fftIn   []float64
	fft     *fourier.FFT
}

// NewPreprocessor builds scratch sized for a row of the given pixel count.
func NewPreprocessor(numNotes, pixelsPerNote int, gamma float64, numPoly int) *Preprocessor {
	fftSize := nextPow2(numNotes * pixelsPerNote)
	if fftSize < 2 {
		fftSize = 2
	}
	return &Preprocessor{
		numNotes:      numNotes,
		pixelsPerNote: pixelsPerNote,
		gamma:         gamma,
		numPoly:       numPoly,
		gray:          make([]float32, numNotes*pixelsPerNote),
		fftIn:         make([]float64, fftSize),
		fft:           fourier.NewFFT(fftSize),
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Process converts row into frame: per-note intensity sampling, gamma
// correction, contrast extraction, and stereo pan gain computation.
// timestampUs is the caller-supplied acquisition timestamp in
// microseconds.
func (p *Preprocessor) Process(row ImageRow, frame *PreprocessedFrame, timestampUs int64) {
	n := len(row.R)
	if n > len(p.gray) {
		n = len(p.gray)
	}

	// (a) grayscale with gamma correction. Brighter pixels drive louder
	// notes: a solid-white row should be audible, a solid-black row
	// should be silent.
	for i := 0; i < n; i++ {
		r := float64(row.R[i]) / 255.0
		g := float64(row.G[i]) / 255.0
		b := float64(row.B[i]) / 255.0
		lum := 0.2126*r + 0.7152*g + 0.0722*b
		gammaCorrected := math.Pow(lum, p.gamma)
		p.gray[i] = float32(gammaCorrected)
	}
	for i := n; i < len(p.gray); i++ {
		p.gray[i] = 0
	}

	// (b) downsample into per-note targets by contiguous grouping.
	var sum float32
	var sumSq float32
	for note := 0; note < p.numNotes; note++ {
		start := note * p.pixelsPerNote
		end := start + p.pixelsPerNote
		if end > n {
			end = n
		}
		var acc float32
		count := 0
		for i := start; i < end; i++ {
			acc += p.gray[i]
			count++
		}
		var avg float32
		if count > 0 {
			avg = acc / float32(count)
		}
		frame.AdditiveNotes[note] = avg
		sum += avg
		sumSq += avg * avg
	}

	// (c) contrast factor: normalized standard deviation across notes.
	mean := sum / float32(p.numNotes)
	variance := sumSq/float32(p.numNotes) - mean*mean
	if variance < 0 {
		variance = 0
	}
	stddev := float32(math.Sqrt(float64(variance)))
	// Standard deviation of a uniform-ish [0,1] signal saturates near 0.5;
	// scale so typical high-contrast frames approach 1.
	frame.ContrastFactor = clampf32(stddev*2, 0, 1)

	// (d) pan from color temperature: cold (blue-dominant) -> left,
	// warm (red-dominant) -> right.
	for note := 0; note < p.numNotes; note++ {
		start := note * p.pixelsPerNote
		end := start + p.pixelsPerNote
		if end > n {
			end = n
		}
		var rAcc, bAcc float32
		count := 0
		for i := start; i < end; i++ {
			rAcc += float32(row.R[i])
			bAcc += float32(row.B[i])
			count++
		}
		var pan float32
		if count > 0 && (rAcc+bAcc) > 0 {
			pan = (rAcc - bAcc) / (rAcc + bAcc)
		}
		pan = clampf32(pan, -1, 1)
		frame.PanPositions[note] = pan
		left, right := equalPowerPan(pan)
		frame.LeftGains[note] = left
		frame.RightGains[note] = right
	}

	// (e) FFT-magnitude-shaped harmonic weights and color-derived
	// harmonicity/detune/inharmonicity for the polyphonic engine.
	p.computePoly(row, n, frame)

	frame.Valid = true
	frame.TimestampUs = timestampUs
}

// equalPowerPan returns (left, right) gains for pan in [-1, +1] such that
// left == right ~= 0.707 at center.
func equalPowerPan(pan float32) (left, right float32) {
	theta := (float64(pan) + 1) * math.Pi / 4 // maps [-1,1] -> [0, pi/2]
	return float32(math.Cos(theta)), float32(math.Sin(theta))
}

func (p *Preprocessor) computePoly(row ImageRow, n int, frame *PreprocessedFrame) {
	for i := range p.fftIn {
		p.fftIn[i] = 0
	}
	for i := 0; i < n && i < len(p.fftIn); i++ {
		p.fftIn[i] = float64(p.gray[i])
	}
	spectrum := p.fft.Coefficients(nil, p.fftIn)

	for k := 0; k < p.numPoly; k++ {
		bin := k + 1 // skip DC
		var mag float64
		if bin < len(spectrum) {
			mag = cabs(spectrum[bin])
		}
		frame.PolyMagnitudes[k] = float32(mag)

		// Harmonicity/detune/inharmonicity from per-partial color sample
		// taken at a pixel proportional to partial index.
		idx := (k * n) / maxInt(p.numPoly, 1)
		if idx >= n {
			idx = n - 1
		}
		var r, g, b float32
		if idx >= 0 && n > 0 {
			r = float32(row.R[idx]) / 255
			g = float32(row.G[idx]) / 255
			b = float32(row.B[idx]) / 255
		}
		saturation := maxF(r, maxF(g, b)) - minF(r, minF(g, b))
		frame.PolyHarmonicity[k] = 1 - clampf32(saturation, 0, 1)
		frame.PolyDetuneCents[k] = (g - 0.5) * 20
		frame.PolyInharmonicRatio[k] = 1 + (b-0.5)*0.3

		pan := (r - b) / maxF(r+b, 1e-6)
		pan = clampf32(pan, -1, 1)
		left, right := equalPowerPan(pan)
		frame.PolyLeftGains[k] = left
		frame.PolyRightGains[k] = right
	}
}

func cabs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

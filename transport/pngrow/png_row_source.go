// Package pngrow implements sp3ctra.ImageSource by decoding a PNG file
// and replaying it one scanline at a time, resampling each row's width
// to the engine's note count with golang.org/x/image/draw (grounded on
// the pack's reliance on golang.org/x/image for non-stdlib image
// scaling rather than a hand-rolled nearest-neighbour loop).
package pngrow

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"
	"time"

	"golang.org/x/image/draw"

	"github.com/ondulab/sp3ctra"
)

// Source replays the rows of a decoded PNG image at a fixed rate,
// resampling each row's width to targetWidth.
type Source struct {
	img         image.Image
	targetWidth int
	rowPeriod   time.Duration
	rows        chan sp3ctra.ImageRow
	done        chan struct{}
	stop        chan struct{}
}

// Open decodes path and prepares a row source that emits one row every
// rowPeriod, each resampled to targetWidth pixels.
func Open(path string, targetWidth int, rowPeriod time.Duration) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pngrow: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("pngrow: decode %s: %w", path, err)
	}

	s := &Source{
		img:         img,
		targetWidth: targetWidth,
		rowPeriod:   rowPeriod,
		rows:        make(chan sp3ctra.ImageRow, 8),
		done:        make(chan struct{}),
		stop:        make(chan struct{}),
	}
	go s.playLoop()
	return s, nil
}

func (s *Source) playLoop() {
	defer close(s.done)
	bounds := s.img.Bounds()
	ticker := time.NewTicker(s.rowPeriod)
	defer ticker.Stop()

	dstRect := image.Rect(0, 0, s.targetWidth, 1)

	y := bounds.Min.Y
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		srcRow := image.Rect(bounds.Min.X, y, bounds.Max.X, y+1)
		dst := image.NewRGBA(dstRect)
		draw.CatmullRom.Scale(dst, dstRect, s.img, srcRow, draw.Over, nil)

		row := sp3ctra.ImageRow{
			R: make([]byte, s.targetWidth),
			G: make([]byte, s.targetWidth),
			B: make([]byte, s.targetWidth),
		}
		for x := 0; x < s.targetWidth; x++ {
			c := color.NRGBAModel.Convert(dst.At(x, 0)).(color.NRGBA)
			row.R[x] = c.R
			row.G[x] = c.G
			row.B[x] = c.B
		}

		select {
		case s.rows <- row:
		default:
		}

		y++
		if y >= bounds.Max.Y {
			y = bounds.Min.Y
		}
	}
}

// Rows returns the channel of resampled rows.
func (s *Source) Rows() <-chan sp3ctra.ImageRow { return s.rows }

// Close stops the playback loop.
func (s *Source) Close() error {
	close(s.stop)
	<-s.done
	close(s.rows)
	return nil
}

// Package raster converts frames to float64 planes and back for the built-in
// effects.
package raster

import (
	"image"
	"math"
)

// Planes holds the color channels of a frame, row-major, one sample per
// pixel in [0, 255]. Alpha is carried through untouched.
type Planes struct {
	Rect    image.Rectangle
	W, H    int
	R, G, B []float64
	A       []uint8
}

// Split copies the channels of img into planes.
func Split(img *image.RGBA) *Planes {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	n := w * h
	p := &Planes{
		Rect: b, W: w, H: h,
		R: make([]float64, n),
		G: make([]float64, n),
		B: make([]float64, n),
		A: make([]uint8, n),
	}
	for y := 0; y < h; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			i, j := y*w+x, x*4
			p.R[i] = float64(row[j])
			p.G[i] = float64(row[j+1])
			p.B[i] = float64(row[j+2])
			p.A[i] = row[j+3]
		}
	}
	return p
}

// Channels returns the color planes in R, G, B order.
func (p *Planes) Channels() [][]float64 {
	return [][]float64{p.R, p.G, p.B}
}

// Luma returns the Rec. 601 luminance of every pixel.
func (p *Planes) Luma() []float64 {
	out := make([]float64, len(p.R))
	for i := range out {
		out[i] = 0.299*p.R[i] + 0.587*p.G[i] + 0.114*p.B[i]
	}
	return out
}

// RGBA builds a new frame with the bounds of the source.
func (p *Planes) RGBA() *image.RGBA {
	img := image.NewRGBA(p.Rect)
	for y := 0; y < p.H; y++ {
		row := img.Pix[img.PixOffset(p.Rect.Min.X, p.Rect.Min.Y+y):]
		for x := 0; x < p.W; x++ {
			i, j := y*p.W+x, x*4
			row[j] = Clamp8(p.R[i])
			row[j+1] = Clamp8(p.G[i])
			row[j+2] = Clamp8(p.B[i])
			row[j+3] = p.A[i]
		}
	}
	return img
}

// At returns the sample of plane at (x, y) with coordinates clamped to the
// edges.
func (p *Planes) At(plane []float64, x, y int) float64 {
	return plane[clampInt(y, 0, p.H-1)*p.W+clampInt(x, 0, p.W-1)]
}

// Clamp8 rounds v to the nearest byte value.
func Clamp8(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

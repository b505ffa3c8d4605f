// Package pix provides the raw RGBA pixel grid the quality metrics and the
// frame analyzers operate on, plus decoding helpers for the image formats
// the optimizer touches.
package pix

import (
	"image"
	"image/draw"
)

// Pixmap is a width×height RGBA pixel grid, 4 bytes per pixel, row-major.
// Pixmaps are never mutated after creation.
type Pixmap struct {
	W, H int
	Pix  []byte
}

// New returns a zeroed (fully transparent) pixmap.
func New(w, h int) *Pixmap {
	return &Pixmap{W: w, H: h, Pix: make([]byte, w*h*4)}
}

// FromImage converts any image.Image into a Pixmap.
func FromImage(img image.Image) *Pixmap {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Pixmap{W: b.Dx(), H: b.Dy(), Pix: dst.Pix}
}

// ToNRGBA returns an image view over the pixmap's pixels. The returned image
// shares the underlying buffer and must be treated as read-only.
func (p *Pixmap) ToNRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    p.Pix,
		Stride: p.W * 4,
		Rect:   image.Rect(0, 0, p.W, p.H),
	}
}

// Luminance returns the BT.601 luminance of every pixel, row-major,
// in the 0-255 range.
func (p *Pixmap) Luminance() []float64 {
	lum := make([]float64, p.W*p.H)
	for i := 0; i < len(lum); i++ {
		o := i * 4
		lum[i] = 0.299*float64(p.Pix[o]) + 0.587*float64(p.Pix[o+1]) + 0.114*float64(p.Pix[o+2])
	}
	return lum
}

// Opaque reports whether every pixel has full alpha.
func (p *Pixmap) Opaque() bool {
	for i := 3; i < len(p.Pix); i += 4 {
		if p.Pix[i] != 0xff {
			return false
		}
	}
	return true
}

package pix

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"

	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DecodeStill decodes an encoded still image buffer (PNG, GIF first frame, or
// non-animated WebP) into a pixmap. Animated WebP is not handled here; the
// codec boundary extracts a first-frame snapshot for those.
func DecodeStill(buf []byte) (*Pixmap, error) {
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return FromImage(img), nil
}

// Frame is one fully-composed animation frame.
type Frame struct {
	Index   int
	Pix     *Pixmap
	DelayMS int
}

// DecodeGIF decodes an animated GIF buffer into fully-composed frames.
// GIF frames may be partial rects with disposal semantics; each returned
// frame is the complete canvas as a viewer would see it.
func DecodeGIF(buf []byte) ([]Frame, error) {
	g, err := gif.DecodeAll(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif has no frames")
	}
	return Coalesce(g), nil
}

// Coalesce composes every GIF frame onto the logical canvas, honoring
// per-frame disposal modes and offsets.
func Coalesce(g *gif.GIF) []Frame {
	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		b := g.Image[0].Bounds()
		w, h = b.Max.X, b.Max.Y
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	frames := make([]Frame, 0, len(g.Image))

	for i, src := range g.Image {
		var backup []byte
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			backup = append([]byte(nil), canvas.Pix...)
		}

		drawOver(canvas, src)

		snap := append([]byte(nil), canvas.Pix...)
		delayMS := 0
		if i < len(g.Delay) {
			delayMS = g.Delay[i] * 10 // GIF delays are in 1/100 s
		}
		frames = append(frames, Frame{
			Index:   i,
			Pix:     &Pixmap{W: w, H: h, Pix: snap},
			DelayMS: delayMS,
		})

		switch disposal {
		case gif.DisposalBackground:
			clearRect(canvas, src.Bounds())
		case gif.DisposalPrevious:
			copy(canvas.Pix, backup)
		}
	}

	return frames
}

// drawOver composites a paletted GIF frame onto the canvas at its offset,
// skipping transparent palette entries.
func drawOver(dst *image.NRGBA, src image.Image) {
	b := src.Bounds().Intersect(dst.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := src.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			o := dst.PixOffset(x, y)
			dst.Pix[o] = uint8(r >> 8)
			dst.Pix[o+1] = uint8(g >> 8)
			dst.Pix[o+2] = uint8(bl >> 8)
			dst.Pix[o+3] = uint8(a >> 8)
		}
	}
}

// clearRect resets a region of the canvas to transparent.
func clearRect(dst *image.NRGBA, r image.Rectangle) {
	b := r.Intersect(dst.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		o := dst.PixOffset(b.Min.X, y)
		end := o + b.Dx()*4
		for i := o; i < end; i++ {
			dst.Pix[i] = 0
		}
	}
}

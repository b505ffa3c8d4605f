// Package meta extracts descriptive metadata from an animated GIF source:
// frame count, frame rate, dimensions, alpha presence and palette size.
// Purely descriptive; no quality judgment happens here.
package meta

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image/gif"

	"github.com/gifpress/gifpress/internal/codec"
)

// ErrInvalidSource is returned for buffers that are not a decodable GIF.
var ErrInvalidSource = errors.New("invalid gif source")

const (
	// DefaultFPS is assumed when the source carries no usable frame timing.
	DefaultFPS = 10.0

	// DefaultFrameCap bounds frame counting on pathological inputs.
	DefaultFrameCap = 1000

	gifHeaderLen = 13 // signature (6) + logical screen descriptor (7)
)

// SourceMetadata describes one source animation. Created once per source and
// immutable afterwards.
type SourceMetadata struct {
	FrameCount  int
	FPS         float64
	Width       int
	Height      int
	HasAlpha    bool
	PaletteSize int
}

// Analyzer produces SourceMetadata using the codec service for frame
// counting and minimal in-process container parsing for the rest.
type Analyzer struct {
	Codec    *codec.Codec
	TempDir  string
	FrameCap int
}

// Analyze extracts metadata from the raw source buffer.
func (a *Analyzer) Analyze(ctx context.Context, src []byte) (*SourceMetadata, error) {
	width, height, paletteSize, err := ParseHeader(src)
	if err != nil {
		return nil, err
	}

	g, err := gif.DecodeAll(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	hasAlpha, fps := describe(g)

	capN := a.FrameCap
	if capN <= 0 {
		capN = DefaultFrameCap
	}
	frames, err := a.Codec.CountFrames(ctx, a.TempDir, src, capN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}

	return &SourceMetadata{
		FrameCount:  frames,
		FPS:         fps,
		Width:       width,
		Height:      height,
		HasAlpha:    hasAlpha,
		PaletteSize: paletteSize,
	}, nil
}

// ParseHeader reads the GIF signature and logical screen descriptor:
// dimensions, plus the global color table flag and its size exponent.
// No global color table yields palette size 0.
func ParseHeader(src []byte) (width, height, paletteSize int, err error) {
	if len(src) < gifHeaderLen {
		return 0, 0, 0, fmt.Errorf("%w: truncated header", ErrInvalidSource)
	}
	sig := string(src[:6])
	if sig != "GIF87a" && sig != "GIF89a" {
		return 0, 0, 0, fmt.Errorf("%w: bad signature %q", ErrInvalidSource, sig)
	}

	width = int(binary.LittleEndian.Uint16(src[6:8]))
	height = int(binary.LittleEndian.Uint16(src[8:10]))

	flags := src[10]
	if flags&0x80 != 0 {
		// Global color table present; size is 2^(exponent+1) entries
		paletteSize = 2 << (flags & 0x07)
	}

	return width, height, paletteSize, nil
}

// describe infers alpha presence from the first decoded frame's palette and
// the frame rate from the first frame's delay. GIF delay is in hundredths of
// a second; a zero delay falls back to DefaultFPS. Frame rate is treated as
// constant for the whole animation - variable per-frame delay is a known
// approximation here.
func describe(g *gif.GIF) (hasAlpha bool, fps float64) {
	fps = DefaultFPS
	if len(g.Delay) > 0 && g.Delay[0] > 0 {
		fps = 100.0 / float64(g.Delay[0])
	}

	if len(g.Image) > 0 {
		for _, c := range g.Image[0].Palette {
			_, _, _, alpha := c.RGBA()
			if alpha < 0xffff {
				hasAlpha = true
				break
			}
		}
	}
	return hasAlpha, fps
}

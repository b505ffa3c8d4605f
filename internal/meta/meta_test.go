package meta

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"testing"
)

// header builds a minimal GIF header with the given logical screen
// descriptor fields.
func header(sig string, w, h int, flags byte) []byte {
	buf := []byte(sig)
	buf = append(buf, byte(w), byte(w>>8), byte(h), byte(h>>8), flags, 0, 0)
	return buf
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name        string
		src         []byte
		wantW       int
		wantH       int
		wantPalette int
		wantErr     bool
	}{
		{
			name:        "gct 256 entries",
			src:         header("GIF89a", 500, 300, 0x80|0x07),
			wantW:       500,
			wantH:       300,
			wantPalette: 256,
		},
		{
			name:        "gct 4 entries",
			src:         header("GIF89a", 16, 16, 0x80|0x01),
			wantW:       16,
			wantH:       16,
			wantPalette: 4,
		},
		{
			name:        "no gct",
			src:         header("GIF87a", 100, 100, 0x00),
			wantW:       100,
			wantH:       100,
			wantPalette: 0,
		},
		{
			name:    "bad signature",
			src:     header("NOTGIF", 1, 1, 0),
			wantErr: true,
		},
		{
			name:    "truncated",
			src:     []byte("GIF89a"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, pal, err := ParseHeader(tt.src)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSource) {
					t.Fatalf("err = %v, want ErrInvalidSource", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeader: %v", err)
			}
			if w != tt.wantW || h != tt.wantH || pal != tt.wantPalette {
				t.Errorf("got (%d,%d,%d), want (%d,%d,%d)",
					w, h, pal, tt.wantW, tt.wantH, tt.wantPalette)
			}
		})
	}
}

func TestParseHeaderOnRealEncoderOutput(t *testing.T) {
	g := testGIF(t, 2, 7, color.RGBA{1, 2, 3, 255})
	w, h, _, err := ParseHeader(g)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if w != 40 || h != 30 {
		t.Errorf("got %dx%d, want 40x30", w, h)
	}
}

func TestDescribe(t *testing.T) {
	pal := color.Palette{color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255}}
	frame := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)

	g := &gif.GIF{Image: []*image.Paletted{frame}, Delay: []int{5}}
	hasAlpha, fps := describe(g)
	if hasAlpha {
		t.Error("opaque palette reported as alpha")
	}
	if fps != 20 {
		t.Errorf("fps = %v, want 20 (delay 5/100s)", fps)
	}

	// Transparent palette entry flips alpha detection
	palT := color.Palette{color.RGBA{0, 0, 0, 0}, color.RGBA{255, 255, 255, 255}}
	g.Image[0] = image.NewPaletted(image.Rect(0, 0, 4, 4), palT)
	hasAlpha, _ = describe(g)
	if !hasAlpha {
		t.Error("transparent palette entry not detected")
	}

	// Zero delay falls back to the default rate
	g.Delay[0] = 0
	_, fps = describe(g)
	if fps != DefaultFPS {
		t.Errorf("fps = %v, want default %v", fps, DefaultFPS)
	}
}

// testGIF encodes a small animated GIF in memory.
func testGIF(t *testing.T, frames, delay int, c color.RGBA) []byte {
	t.Helper()
	g := &gif.GIF{Config: image.Config{Width: 40, Height: 30}}
	for i := 0; i < frames; i++ {
		pal := color.Palette{color.RGBA{0, 0, 0, 255}, c}
		f := image.NewPaletted(image.Rect(0, 0, 40, 30), pal)
		for p := range f.Pix {
			f.Pix[p] = 1
		}
		g.Image = append(g.Image, f)
		g.Delay = append(g.Delay, delay)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

package quality

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/gifpress/gifpress/internal/pix"
)

// solid returns a w×h pixmap filled with one opaque color.
func solid(w, h int, r, g, b byte) *pix.Pixmap {
	p := pix.New(w, h)
	for i := 0; i < w*h; i++ {
		o := i * 4
		p.Pix[o], p.Pix[o+1], p.Pix[o+2], p.Pix[o+3] = r, g, b, 255
	}
	return p
}

// noisy returns a w×h pixmap of deterministic pseudo-random pixels.
func noisy(w, h int, seed int64) *pix.Pixmap {
	rng := rand.New(rand.NewSource(seed))
	p := pix.New(w, h)
	for i := 0; i < w*h; i++ {
		o := i * 4
		p.Pix[o] = byte(rng.Intn(256))
		p.Pix[o+1] = byte(rng.Intn(256))
		p.Pix[o+2] = byte(rng.Intn(256))
		p.Pix[o+3] = 255
	}
	return p
}

func clone(p *pix.Pixmap) *pix.Pixmap {
	c := pix.New(p.W, p.H)
	copy(c.Pix, p.Pix)
	return c
}

func TestIdenticalImages(t *testing.T) {
	img := noisy(64, 48, 1)
	m, err := Compare(img, clone(img))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if m.SSIM != 1 {
		t.Errorf("SSIM = %v, want 1", m.SSIM)
	}
	if !math.IsInf(m.PSNR, 1) {
		t.Errorf("PSNR = %v, want +Inf", m.PSNR)
	}
	if m.DeltaE != 0 {
		t.Errorf("DeltaE = %v, want 0", m.DeltaE)
	}
	if m.EdgePreservation != 1 {
		t.Errorf("EdgePreservation = %v, want 1", m.EdgePreservation)
	}
}

func TestMetricRanges(t *testing.T) {
	a := noisy(32, 32, 2)
	b := noisy(32, 32, 3)

	m, err := Compare(a, b)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if m.SSIM < 0 || m.SSIM > 1 {
		t.Errorf("SSIM out of range: %v", m.SSIM)
	}
	if m.PSNR < 0 {
		t.Errorf("PSNR negative: %v", m.PSNR)
	}
	if m.DeltaE < 0 {
		t.Errorf("DeltaE negative: %v", m.DeltaE)
	}
	if m.EdgePreservation < 0 || m.EdgePreservation > 1 {
		t.Errorf("EdgePreservation out of range: %v", m.EdgePreservation)
	}
}

func TestDimensionMismatch(t *testing.T) {
	a := solid(16, 16, 0, 0, 0)
	b := solid(16, 17, 0, 0, 0)

	if _, err := Compare(a, b); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Compare error = %v, want ErrDimensionMismatch", err)
	}
	if _, err := SSIM(a, b); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("SSIM error = %v", err)
	}
	if _, err := PSNR(a, b); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("PSNR error = %v", err)
	}
	if _, err := DeltaE(a, b); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("DeltaE error = %v", err)
	}
	if _, err := EdgePreservation(a, b); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("EdgePreservation error = %v", err)
	}
}

func TestSSIMDegrades(t *testing.T) {
	ref := noisy(64, 64, 4)

	// Flatten half the image to destroy structure
	damaged := clone(ref)
	for i := 0; i < 64*32; i++ {
		o := i * 4
		damaged.Pix[o], damaged.Pix[o+1], damaged.Pix[o+2] = 128, 128, 128
	}

	s, err := SSIM(ref, damaged)
	if err != nil {
		t.Fatal(err)
	}
	if s >= 0.99 {
		t.Errorf("SSIM = %v, expected visible degradation", s)
	}
}

func TestSSIMSmallImage(t *testing.T) {
	// Below one 8x8 block: scored as a single block, must not panic
	a := solid(5, 5, 200, 100, 50)
	s, err := SSIM(a, clone(a))
	if err != nil {
		t.Fatal(err)
	}
	if s != 1 {
		t.Errorf("SSIM = %v, want 1", s)
	}
}

func TestSSIMDropsPartialBlocks(t *testing.T) {
	// 12x12: only one full 8x8 block fits; the 4px margins must not count.
	ref := noisy(12, 12, 5)
	damaged := clone(ref)

	// Corrupt only pixels outside the top-left 8x8 block
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			if x < 8 && y < 8 {
				continue
			}
			o := (y*12 + x) * 4
			damaged.Pix[o] = 255 - damaged.Pix[o]
		}
	}

	s, err := SSIM(ref, damaged)
	if err != nil {
		t.Fatal(err)
	}
	if s != 1 {
		t.Errorf("SSIM = %v, want 1: damage outside full blocks must be ignored", s)
	}
}

func TestPSNRKnownValue(t *testing.T) {
	// Uniform difference of 1 on every channel: MSE = 1, PSNR = 20*log10(255)
	a := solid(16, 16, 100, 100, 100)
	b := solid(16, 16, 101, 101, 101)

	got, err := PSNR(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := 20 * math.Log10(255)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("PSNR = %v, want %v", got, want)
	}
}

func TestDeltaEStrideInvariantWhenIdentical(t *testing.T) {
	img := noisy(50, 50, 6)
	for _, stride := range []int{1, 7, 100, 999} {
		de, err := deltaEStrided(img, clone(img), stride)
		if err != nil {
			t.Fatal(err)
		}
		if de != 0 {
			t.Errorf("stride %d: DeltaE = %v, want exactly 0", stride, de)
		}
	}
}

func TestDeltaEBlackVsWhite(t *testing.T) {
	black := solid(20, 20, 0, 0, 0)
	white := solid(20, 20, 255, 255, 255)

	de, err := DeltaE(black, white)
	if err != nil {
		t.Fatal(err)
	}
	// L* spans 0..100; black vs white differs by the full lightness axis
	if math.Abs(de-100) > 0.5 {
		t.Errorf("DeltaE(black, white) = %v, want ~100", de)
	}
}

func TestEdgePreservationFlatImage(t *testing.T) {
	a := solid(32, 32, 77, 77, 77)
	b := solid(32, 32, 80, 80, 80)

	ep, err := EdgePreservation(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if ep != 1 {
		t.Errorf("EdgePreservation with no edges = %v, want 1", ep)
	}
}

func TestEdgePreservationDetectsBlur(t *testing.T) {
	// A hard vertical edge vs a flat image: every edge pixel is lost
	ref := pix.New(32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			o := (y*32 + x) * 4
			v := byte(0)
			if x >= 16 {
				v = 255
			}
			ref.Pix[o], ref.Pix[o+1], ref.Pix[o+2], ref.Pix[o+3] = v, v, v, 255
		}
	}
	flat := solid(32, 32, 128, 128, 128)

	ep, err := EdgePreservation(ref, flat)
	if err != nil {
		t.Fatal(err)
	}
	if ep != 0 {
		t.Errorf("EdgePreservation = %v, want 0 for fully lost edges", ep)
	}
}

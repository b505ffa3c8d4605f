package optimize

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/gifpress/gifpress/internal/codec"
	"github.com/gifpress/gifpress/internal/pix"
	"github.com/gifpress/gifpress/internal/quality"
)

// fakeDecoder maps a candidate buffer's first byte to a prepared pixmap,
// standing in for the codec's first-frame extraction.
type fakeDecoder struct {
	grids map[byte]*pix.Pixmap
}

func (f *fakeDecoder) decode(_ context.Context, buf []byte) (*pix.Pixmap, error) {
	if len(buf) == 0 {
		return nil, errors.New("empty buffer")
	}
	p, ok := f.grids[buf[0]]
	if !ok {
		return nil, fmt.Errorf("no grid for key %d", buf[0])
	}
	return p, nil
}

func refGrid() *pix.Pixmap {
	rng := rand.New(rand.NewSource(42))
	p := pix.New(64, 64)
	for i := 0; i < 64*64; i++ {
		o := i * 4
		p.Pix[o] = byte(rng.Intn(256))
		p.Pix[o+1] = byte(rng.Intn(256))
		p.Pix[o+2] = byte(rng.Intn(256))
		p.Pix[o+3] = 255
	}
	return p
}

func cloneGrid(p *pix.Pixmap) *pix.Pixmap {
	c := pix.New(p.W, p.H)
	copy(c.Pix, p.Pix)
	return c
}

// corruptGrid flips every pixel to destroy similarity.
func corruptGrid(p *pix.Pixmap) *pix.Pixmap {
	c := cloneGrid(p)
	for i := 0; i < len(c.Pix); i += 4 {
		c.Pix[i] = 255 - c.Pix[i]
		c.Pix[i+1] = 255 - c.Pix[i+1]
		c.Pix[i+2] = 255 - c.Pix[i+2]
	}
	return c
}

func cand(key byte, strategy codec.Strategy, q int, sizeKB float64) Candidate {
	return Candidate{
		Config: codec.EncodingConfig{Strategy: strategy, Quality: q, NearLossless: -1},
		Buffer: []byte{key, 0, 0},
		SizeKB: sizeKB,
	}
}

func TestSelectPrefersSmallerQualifier(t *testing.T) {
	ref := refGrid()
	dec := &fakeDecoder{grids: map[byte]*pix.Pixmap{
		1: cloneGrid(ref), // perfect, large
		2: cloneGrid(ref), // perfect, small
	}}

	cands := []Candidate{
		cand(1, codec.StrategyPureLossless, 100, 900),
		cand(2, codec.StrategyOptimizedLossy, 85, 300),
	}

	winner, m, err := Select(context.Background(), ref, cands, ModeSize, dec.decode)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	// Identical quality scores, so the smaller candidate's size score wins
	if winner.Buffer[0] != 2 {
		t.Errorf("winner = key %d, want the smaller candidate", winner.Buffer[0])
	}
	if m.SSIM != 1 {
		t.Errorf("winner SSIM = %v, want 1", m.SSIM)
	}
}

func TestSelectSkipsNonQualifiers(t *testing.T) {
	ref := refGrid()
	dec := &fakeDecoder{grids: map[byte]*pix.Pixmap{
		1: corruptGrid(ref), // tiny but garbage
		2: cloneGrid(ref),   // large but perfect
	}}

	cands := []Candidate{
		cand(1, codec.StrategyOptimizedLossy, 50, 10),
		cand(2, codec.StrategyPureLossless, 100, 800),
	}

	winner, _, err := Select(context.Background(), ref, cands, ModeSize, dec.decode)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if winner.Buffer[0] != 2 {
		t.Errorf("winner = key %d; a qualifier exists and must beat non-qualifiers", winner.Buffer[0])
	}
}

func TestSelectFallbackLaw(t *testing.T) {
	ref := refGrid()
	bad := corruptGrid(ref)
	dec := &fakeDecoder{grids: map[byte]*pix.Pixmap{1: bad, 2: bad, 3: bad}}

	cands := []Candidate{
		cand(1, codec.StrategyNearLossless, 90, 100),
		cand(2, codec.StrategyOptimizedLossy, 95, 100), // highest quality
		cand(3, codec.StrategyOptimizedLossy, 95, 50),  // same quality, later
	}

	winner, _, err := Select(context.Background(), ref, cands, ModeQuality, dec.decode)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if winner.Buffer[0] != 2 {
		t.Errorf("fallback winner = key %d, want first candidate with max quality", winner.Buffer[0])
	}
}

func TestSelectExcludesUndecodableCandidates(t *testing.T) {
	ref := refGrid()
	dec := &fakeDecoder{grids: map[byte]*pix.Pixmap{
		2: cloneGrid(ref),
	}}

	cands := []Candidate{
		cand(1, codec.StrategyPureLossless, 100, 10), // decode fails
		cand(2, codec.StrategyOptimizedLossy, 85, 500),
	}

	winner, _, err := Select(context.Background(), ref, cands, ModeQuality, dec.decode)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if winner.Buffer[0] != 2 {
		t.Errorf("winner = key %d, undecodable candidate must be excluded", winner.Buffer[0])
	}
}

func TestSelectDimensionMismatchExcludes(t *testing.T) {
	ref := refGrid()
	small := pix.New(32, 32)
	dec := &fakeDecoder{grids: map[byte]*pix.Pixmap{
		1: small, // wrong size: comparison must fail, not score
		2: cloneGrid(ref),
	}}

	cands := []Candidate{
		cand(1, codec.StrategyPureLossless, 100, 10),
		cand(2, codec.StrategyOptimizedLossy, 85, 500),
	}

	winner, _, err := Select(context.Background(), ref, cands, ModeQuality, dec.decode)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if winner.Buffer[0] != 2 {
		t.Errorf("winner = key %d, mismatched candidate must be excluded", winner.Buffer[0])
	}
}

func TestSelectDeterministic(t *testing.T) {
	ref := refGrid()
	dec := &fakeDecoder{grids: map[byte]*pix.Pixmap{
		1: cloneGrid(ref),
		2: cloneGrid(ref),
	}}
	cands := []Candidate{
		cand(1, codec.StrategyNearLossless, 95, 400),
		cand(2, codec.StrategyHybrid, 92, 400),
	}

	first, _, err := Select(context.Background(), ref, cands, ModeQuality, dec.decode)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _, err := Select(context.Background(), ref, cands, ModeQuality, dec.decode)
		if err != nil {
			t.Fatal(err)
		}
		if again.Buffer[0] != first.Buffer[0] {
			t.Fatalf("run %d picked key %d, first run picked %d", i, again.Buffer[0], first.Buffer[0])
		}
	}
}

func TestSelectEmptyCandidates(t *testing.T) {
	_, _, err := Select(context.Background(), refGrid(), nil, ModeQuality, nil)
	if !errors.Is(err, ErrNoViableCandidate) {
		t.Errorf("err = %v, want ErrNoViableCandidate", err)
	}
}

func TestMeetsThresholds(t *testing.T) {
	// Fails its strategy's deltaE bar but clears the relaxed global SSIM bar
	m := &quality.Metrics{SSIM: 0.93, DeltaE: 8, EdgePreservation: 0.5}
	if !meetsThresholds(m, codec.StrategyNearLossless) {
		t.Error("relaxed global bar should qualify ssim 0.93")
	}

	m = &quality.Metrics{SSIM: 0.90, DeltaE: 8, EdgePreservation: 0.5}
	if meetsThresholds(m, codec.StrategyNearLossless) {
		t.Error("ssim 0.90 qualifies nothing")
	}

	// Pure lossless gates on SSIM only
	m = &quality.Metrics{SSIM: 0.995, DeltaE: 50, EdgePreservation: 0}
	if !meetsThresholds(m, codec.StrategyPureLossless) {
		t.Error("pure-lossless should gate on SSIM alone")
	}

	// Per-strategy bars from the acceptance table
	m = &quality.Metrics{SSIM: 0.96, DeltaE: 3.5, EdgePreservation: 0.95}
	if meetsThresholds(m, codec.StrategyNearLossless) {
		t.Error("near-lossless requires ssim >= 0.97")
	}
	if !meetsThresholds(m, codec.StrategyHybrid) {
		t.Error("hybrid bar should accept ssim 0.96, deltaE 3.5, edge 0.95")
	}
}

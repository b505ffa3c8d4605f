// Package dedup collapses runs of near-identical animation frames using a
// coarse perceptual hash. The analyzer is CPU-bound and independent of the
// encoding search, so callers typically run it on its own goroutine.
package dedup

import (
	"math/bits"

	"github.com/disintegration/imaging"

	"github.com/gifpress/gifpress/internal/pix"
	"github.com/gifpress/gifpress/internal/progress"
)

const (
	// hashGrid is the downsample size: 16x16 cells = 256 hash bits.
	hashGrid = 16

	// midGray is the threshold for a cell's bit: mid-range of the
	// 256-level gray scale.
	midGray = 127.5

	// DefaultThreshold is the Hamming distance a frame must exceed against
	// the last kept frame to be considered distinct.
	DefaultThreshold = 8
)

// Hash is a 256-bit perceptual fingerprint of one frame.
type Hash [4]uint64

// Distance returns the Hamming distance between two hashes: the number of
// differing bits.
func (h Hash) Distance(other Hash) int {
	d := 0
	for i := range h {
		d += bits.OnesCount64(h[i] ^ other[i])
	}
	return d
}

// HashFrame computes the perceptual hash of a frame: downsample to a 16x16
// grid, average RGB to luminance per cell, and set the cell's bit when its
// luminance is above mid-gray.
func HashFrame(p *pix.Pixmap) Hash {
	small := imaging.Resize(p.ToNRGBA(), hashGrid, hashGrid, imaging.Box)

	var h Hash
	for i := 0; i < hashGrid*hashGrid; i++ {
		o := i * 4
		lum := 0.299*float64(small.Pix[o]) + 0.587*float64(small.Pix[o+1]) + 0.114*float64(small.Pix[o+2])
		if lum > midGray {
			h[i/64] |= 1 << uint(i%64)
		}
	}
	return h
}

// KeepFrames walks the frames in order and returns the indices to keep.
//
// The last kept frame is the comparison anchor: a frame is kept iff its
// Hamming distance to the anchor exceeds threshold, and it then becomes the
// new anchor. Greedy single pass; not globally optimal. Index 0 is always
// kept. Frames whose decode failed upstream (nil pixmap) are skipped and
// never kept.
func KeepFrames(frames []pix.Frame, threshold int, fn progress.Func) []int {
	if len(frames) == 0 {
		return nil
	}
	if threshold < 1 {
		threshold = DefaultThreshold
	}

	keep := []int{0}
	var anchor Hash
	haveAnchor := false
	if frames[0].Pix != nil {
		anchor = HashFrame(frames[0].Pix)
		haveAnchor = true
	}

	total := len(frames)
	for i := 1; i < total; i++ {
		fn.ReportFrames(progress.PhaseAnalyzing, float64(i)/float64(total)*100,
			"deduplicating frames", i, total)

		if frames[i].Pix == nil {
			continue
		}
		h := HashFrame(frames[i].Pix)
		if !haveAnchor {
			anchor = h
			haveAnchor = true
			continue
		}
		if anchor.Distance(h) > threshold {
			keep = append(keep, i)
			anchor = h
		}
	}

	fn.ReportFrames(progress.PhaseAnalyzing, 100, "deduplication complete", total, total)
	return keep
}

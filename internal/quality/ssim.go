package quality

import (
	"github.com/gifpress/gifpress/internal/pix"
)

// Stabilizing constants from the standard SSIM formulation for 8-bit
// dynamic range: C1 = (0.01*255)^2, C2 = (0.03*255)^2.
const (
	ssimC1 = 6.5025
	ssimC2 = 58.5225

	ssimBlock = 8
)

// SSIM computes the mean structural similarity over non-overlapping 8x8
// luminance blocks. Partial blocks at the right/bottom edges are dropped,
// not padded. Images smaller than one block are scored as a single block.
func SSIM(ref, cand *pix.Pixmap) (float64, error) {
	if err := checkDims(ref, cand); err != nil {
		return 0, err
	}

	w, h := ref.W, ref.H
	lumA := ref.Luminance()
	lumB := cand.Luminance()

	if w < ssimBlock || h < ssimBlock {
		return clamp01(blockSSIM(lumA, lumB, w, 0, 0, w, h)), nil
	}

	var sum float64
	var blocks int
	for by := 0; by+ssimBlock <= h; by += ssimBlock {
		for bx := 0; bx+ssimBlock <= w; bx += ssimBlock {
			sum += blockSSIM(lumA, lumB, w, bx, by, ssimBlock, ssimBlock)
			blocks++
		}
	}

	return clamp01(sum / float64(blocks)), nil
}

// clamp01 pins the score into [0,1]. Strongly anti-correlated blocks can
// push the raw structural similarity below zero; callers treat SSIM as a
// similarity in [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// blockSSIM scores a single bw×bh block at (bx,by) via the standard
// structural-similarity formula over mean, variance and covariance.
func blockSSIM(lumA, lumB []float64, stride, bx, by, bw, bh int) float64 {
	n := float64(bw * bh)

	var muA, muB float64
	for y := by; y < by+bh; y++ {
		row := y * stride
		for x := bx; x < bx+bw; x++ {
			muA += lumA[row+x]
			muB += lumB[row+x]
		}
	}
	muA /= n
	muB /= n

	var varA, varB, cov float64
	for y := by; y < by+bh; y++ {
		row := y * stride
		for x := bx; x < bx+bw; x++ {
			da := lumA[row+x] - muA
			db := lumB[row+x] - muB
			varA += da * da
			varB += db * db
			cov += da * db
		}
	}
	varA /= n
	varB /= n
	cov /= n

	num := (2*muA*muB + ssimC1) * (2*cov + ssimC2)
	den := (muA*muA + muB*muB + ssimC1) * (varA + varB + ssimC2)
	return num / den
}

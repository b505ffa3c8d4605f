package quality

import (
	"math"

	"github.com/gifpress/gifpress/internal/pix"
)

const (
	// edgeThreshold marks a pixel as an edge when either image's normalized
	// gradient magnitude exceeds it; a matching pixel's magnitudes must
	// differ by less than the same amount to count as preserved.
	edgeThreshold = 0.1
)

// maxSobelMagnitude is the largest possible gradient magnitude for 8-bit
// luminance: each Sobel axis peaks at 4*255, so the magnitude peaks at
// 1020*sqrt(2). Used to normalize magnitudes into [0,1].
var maxSobelMagnitude = 1020 * math.Sqrt2

// EdgePreservation measures how well the candidate keeps the reference's
// edges: the fraction of edge pixels (edge in either image) whose normalized
// Sobel gradient magnitudes differ by less than 0.1. An image pair with no
// edge pixels scores 1.
func EdgePreservation(ref, cand *pix.Pixmap) (float64, error) {
	if err := checkDims(ref, cand); err != nil {
		return 0, err
	}

	w, h := ref.W, ref.H
	gradA := sobelMagnitudes(ref.Luminance(), w, h)
	gradB := sobelMagnitudes(cand.Luminance(), w, h)

	var edges, preserved int
	for i := range gradA {
		ga, gb := gradA[i], gradB[i]
		if ga > edgeThreshold || gb > edgeThreshold {
			edges++
			if math.Abs(ga-gb) < edgeThreshold {
				preserved++
			}
		}
	}

	if edges == 0 {
		return 1, nil
	}
	return float64(preserved) / float64(edges), nil
}

// sobelMagnitudes returns the normalized gradient magnitude per pixel.
// Border pixels, where the 3x3 kernel does not fit, are left at zero.
func sobelMagnitudes(lum []float64, w, h int) []float64 {
	mag := make([]float64, w*h)
	if w < 3 || h < 3 {
		return mag
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			tl := lum[(y-1)*w+x-1]
			tc := lum[(y-1)*w+x]
			tr := lum[(y-1)*w+x+1]
			ml := lum[y*w+x-1]
			mr := lum[y*w+x+1]
			bl := lum[(y+1)*w+x-1]
			bc := lum[(y+1)*w+x]
			br := lum[(y+1)*w+x+1]

			gx := -tl - 2*ml - bl + tr + 2*mr + br
			gy := -tl - 2*tc - tr + bl + 2*bc + br

			mag[y*w+x] = math.Sqrt(gx*gx+gy*gy) / maxSobelMagnitude
		}
	}
	return mag
}

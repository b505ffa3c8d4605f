// Package quality implements the four perceptual metrics used to judge a
// candidate encoding against its reference frame: SSIM, PSNR, a simplified
// CIELab delta-E, and Sobel edge preservation.
//
// Every metric is a pure function of two equal-sized pixel grids. A dimension
// mismatch is a precondition failure and returns an error rather than a
// misleading score.
package quality

import (
	"errors"
	"fmt"

	"github.com/gifpress/gifpress/internal/pix"
)

// ErrDimensionMismatch is returned when the two pixmaps differ in size.
var ErrDimensionMismatch = errors.New("pixmap dimensions differ")

// Metrics holds one candidate's scores against the reference.
type Metrics struct {
	SSIM             float64 // [0,1], 1 = structurally identical
	PSNR             float64 // dB, +Inf for bit-identical images
	DeltaE           float64 // >= 0, 0 = identical color
	EdgePreservation float64 // [0,1], 1 = all edges intact
}

// Compare computes all four metrics for cand against ref.
func Compare(ref, cand *pix.Pixmap) (*Metrics, error) {
	if err := checkDims(ref, cand); err != nil {
		return nil, err
	}

	ssim, err := SSIM(ref, cand)
	if err != nil {
		return nil, err
	}
	psnr, err := PSNR(ref, cand)
	if err != nil {
		return nil, err
	}
	de, err := DeltaE(ref, cand)
	if err != nil {
		return nil, err
	}
	edge, err := EdgePreservation(ref, cand)
	if err != nil {
		return nil, err
	}

	return &Metrics{SSIM: ssim, PSNR: psnr, DeltaE: de, EdgePreservation: edge}, nil
}

func checkDims(a, b *pix.Pixmap) error {
	if a.W != b.W || a.H != b.H {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, a.W, a.H, b.W, b.H)
	}
	if a.W == 0 || a.H == 0 {
		return fmt.Errorf("%w: empty image", ErrDimensionMismatch)
	}
	return nil
}

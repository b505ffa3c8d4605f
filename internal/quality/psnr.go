package quality

import (
	"math"

	"github.com/gifpress/gifpress/internal/pix"
)

// PSNR computes the peak signal-to-noise ratio over the R, G and B channels
// of every pixel. Bit-identical images yield +Inf (MSE of exactly zero).
func PSNR(ref, cand *pix.Pixmap) (float64, error) {
	if err := checkDims(ref, cand); err != nil {
		return 0, err
	}

	var sum float64
	n := ref.W * ref.H
	for i := 0; i < n; i++ {
		o := i * 4
		for c := 0; c < 3; c++ {
			d := float64(ref.Pix[o+c]) - float64(cand.Pix[o+c])
			sum += d * d
		}
	}

	mse := sum / float64(n*3)
	if mse == 0 {
		return math.Inf(1), nil
	}
	return 20 * math.Log10(255/math.Sqrt(mse)), nil
}

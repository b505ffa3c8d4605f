package quality

import (
	"math"

	"github.com/gifpress/gifpress/internal/pix"
)

// deltaEStride samples every Nth pixel. Full-image Lab conversion is too
// slow for the candidate loop and sparse sampling tracks the mean closely.
const deltaEStride = 100

// DeltaE computes the mean perceptual color difference over sampled pixels.
//
// Pixels are converted sRGB → linear RGB → XYZ (D65) → CIE L*a*b* and the
// difference is the Euclidean distance in Lab space. This is the simplified
// delta-E*ab, not CIEDE2000; the acceptance thresholds elsewhere were tuned
// against this approximation and must move with it if it is ever upgraded.
func DeltaE(ref, cand *pix.Pixmap) (float64, error) {
	return deltaEStrided(ref, cand, deltaEStride)
}

func deltaEStrided(ref, cand *pix.Pixmap, stride int) (float64, error) {
	if err := checkDims(ref, cand); err != nil {
		return 0, err
	}
	if stride < 1 {
		stride = 1
	}

	var sum float64
	var samples int
	n := ref.W * ref.H
	for i := 0; i < n; i += stride {
		o := i * 4
		l1, a1, b1 := rgbToLab(ref.Pix[o], ref.Pix[o+1], ref.Pix[o+2])
		l2, a2, b2 := rgbToLab(cand.Pix[o], cand.Pix[o+1], cand.Pix[o+2])
		dl, da, db := l1-l2, a1-a2, b1-b2
		sum += math.Sqrt(dl*dl + da*da + db*db)
		samples++
	}

	return sum / float64(samples), nil
}

// rgbToLab converts an 8-bit sRGB triple to CIE L*a*b* under D65.
func rgbToLab(r8, g8, b8 byte) (l, a, b float64) {
	rl := srgbToLinear(float64(r8) / 255)
	gl := srgbToLinear(float64(g8) / 255)
	bl := srgbToLinear(float64(b8) / 255)

	// Linear RGB to XYZ, sRGB primaries, D65 white point
	x := 0.4124564*rl + 0.3575761*gl + 0.1804375*bl
	y := 0.2126729*rl + 0.7151522*gl + 0.0721750*bl
	z := 0.0193339*rl + 0.1191920*gl + 0.9503041*bl

	// Normalize by the D65 reference white
	fx := labF(x / 0.95047)
	fy := labF(y / 1.00000)
	fz := labF(z / 1.08883)

	l = 116*fy - 16
	a = 500 * (fx - fy)
	b = 200 * (fy - fz)
	return
}

func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func labF(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

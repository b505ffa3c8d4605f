package codec

// Strategy labels which quality/size trade-off family a configuration
// belongs to. The selection policy applies per-strategy acceptance
// thresholds keyed on these tags.
type Strategy string

const (
	StrategyPureLossless   Strategy = "pure-lossless"
	StrategyNearLossless   Strategy = "near-lossless"
	StrategyHybrid         Strategy = "hybrid"
	StrategyOptimizedLossy Strategy = "optimized-lossy"
)

// EncodingConfig describes one point in the candidate search space.
// Configs are produced in bulk by the generator and never mutated after
// creation.
type EncodingConfig struct {
	Strategy Strategy

	Quality  int  // 0-100, higher = closer to source
	Effort   int  // 0-6 compression effort
	Lossless bool

	// NearLossless is the near-lossless strength: -1 disables it, and lower
	// non-negative values are stricter (0 is closest to exact reproduction).
	NearLossless int

	SharpYUV    bool    // sharper color transform at chroma edges
	PixelFormat string  // fixed per source by alpha presence; no mixing
	Denoise     float64 // pre-encode denoise strength, 0 = off

	// ScaleWidth downscales the output to this width (height follows the
	// aspect ratio). 0 keeps the source size.
	ScaleWidth  int
	ScaleFilter string // scaling filter, e.g. "lanczos"

	UsePalette    bool
	PaletteColors int
	Dither        string

	RemoveDups  bool    // drop duplicate frames in the codec filter chain
	DeltaFrames bool    // prefer inter-frame delta encoding
	FPS         float64 // frame-rate retarget, 0 = keep source timing
}

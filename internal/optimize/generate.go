package optimize

import (
	"github.com/gifpress/gifpress/internal/codec"
	"github.com/gifpress/gifpress/internal/meta"
)

const (
	// DefaultMaxCandidates bounds the search so later encode and metric
	// work stays predictable.
	DefaultMaxCandidates = 8

	// dupFrameThreshold: sources with more frames than this get the
	// duplicate-removal and delta-encoding flags on every configuration.
	dupFrameThreshold = 20

	// dedupSavingsRatio: when the deduplication analyzer would drop at
	// least this share of frames, duplicate removal is worth the filter
	// cost regardless of total frame count.
	dedupSavingsRatio = 0.25
)

// Generate produces the ordered candidate lattice for one source. The list
// is deterministic, never empty, and never longer than maxCandidates.
//
// Quality mode orders strategies strictest to most aggressive so earlier
// candidates are safer bets; size mode is a quality/effort cross product.
func Generate(md *meta.SourceMetadata, framesToKeep []int, mode Mode, maxCandidates int) []codec.EncodingConfig {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}

	pixFmt := "yuv420p"
	if md.HasAlpha {
		pixFmt = "yuva420p"
	}

	manyFrames := md.FrameCount > dupFrameThreshold
	removeDups := manyFrames
	if len(framesToKeep) > 0 && md.FrameCount > 1 {
		dropped := float64(md.FrameCount-len(framesToKeep)) / float64(md.FrameCount)
		if dropped >= dedupSavingsRatio {
			removeDups = true
		}
	}

	base := codec.EncodingConfig{
		NearLossless: -1,
		PixelFormat:  pixFmt,
		ScaleFilter:  "lanczos",
		RemoveDups:   removeDups,
		DeltaFrames:  manyFrames,
	}

	var cfgs []codec.EncodingConfig
	switch mode {
	case ModeSize:
		cfgs = sizeLattice(base, md)
	default:
		cfgs = qualityLattice(base)
	}

	if len(cfgs) > maxCandidates {
		cfgs = cfgs[:maxCandidates]
	}
	return cfgs
}

// qualityLattice emits the strategy archetypes in strictness order. Each
// entry's quality/effort combination is tuned to clear its strategy's
// acceptance bar; palette reduction is never used here to protect fidelity.
func qualityLattice(base codec.EncodingConfig) []codec.EncodingConfig {
	pureLossless := base
	pureLossless.Strategy = codec.StrategyPureLossless
	pureLossless.Lossless = true
	pureLossless.Quality = 100
	pureLossless.Effort = 6

	nearStrict := base
	nearStrict.Strategy = codec.StrategyNearLossless
	nearStrict.NearLossless = 20 // lower = stricter
	nearStrict.Quality = 95
	nearStrict.Effort = 6

	nearRelaxed := base
	nearRelaxed.Strategy = codec.StrategyNearLossless
	nearRelaxed.NearLossless = 40
	nearRelaxed.Quality = 90
	nearRelaxed.Effort = 6

	hybrid := base
	hybrid.Strategy = codec.StrategyHybrid
	hybrid.Quality = 92
	hybrid.Effort = 6
	hybrid.SharpYUV = true

	lossyHigh := base
	lossyHigh.Strategy = codec.StrategyOptimizedLossy
	lossyHigh.Quality = 85
	lossyHigh.Effort = 6

	lossyAggressive := base
	lossyAggressive.Strategy = codec.StrategyOptimizedLossy
	lossyAggressive.Quality = 75
	lossyAggressive.Effort = 4
	lossyAggressive.Denoise = 1.5

	return []codec.EncodingConfig{
		pureLossless, nearStrict, nearRelaxed, hybrid, lossyHigh, lossyAggressive,
	}
}

// sizeLattice crosses a small quality list with an effort list, capped at
// six, everything tagged and declared lossy. Palette reduction is allowed
// here when the source carries a usable global color table.
func sizeLattice(base codec.EncodingConfig, md *meta.SourceMetadata) []codec.EncodingConfig {
	paletteOK := md.PaletteSize > 0 && md.PaletteSize <= 256

	qualities := []int{75, 60, 50}
	efforts := []int{4, 6}

	cfgs := make([]codec.EncodingConfig, 0, len(qualities)*len(efforts))
	for _, q := range qualities {
		for _, e := range efforts {
			cfg := base
			cfg.Strategy = codec.StrategyOptimizedLossy
			cfg.Quality = q
			cfg.Effort = e
			// The most aggressive quality level also tries the source's own
			// palette to squeeze flat-color content
			if paletteOK && q == qualities[len(qualities)-1] {
				cfg.UsePalette = true
				cfg.PaletteColors = md.PaletteSize
				cfg.Dither = "bayer"
			}
			cfgs = append(cfgs, cfg)
		}
	}
	return cfgs
}

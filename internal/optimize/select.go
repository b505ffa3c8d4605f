package optimize

import (
	"context"
	"math"

	"github.com/gifpress/gifpress/internal/codec"
	"github.com/gifpress/gifpress/internal/logger"
	"github.com/gifpress/gifpress/internal/pix"
	"github.com/gifpress/gifpress/internal/quality"
)

// acceptance holds one strategy's quality bar. A zero/absent bound means
// the strategy does not gate on that metric.
type acceptance struct {
	minSSIM   float64
	maxDeltaE float64 // +Inf = not gated
	minEdge   float64
}

// Per-strategy acceptance thresholds. A candidate also qualifies under the
// relaxed global bar regardless of strategy.
var thresholds = map[codec.Strategy]acceptance{
	codec.StrategyPureLossless:   {minSSIM: 0.99, maxDeltaE: math.Inf(1), minEdge: 0},
	codec.StrategyNearLossless:   {minSSIM: 0.97, maxDeltaE: 3.0, minEdge: 0.93},
	codec.StrategyHybrid:         {minSSIM: 0.96, maxDeltaE: 4.0, minEdge: 0.92},
	codec.StrategyOptimizedLossy: {minSSIM: 0.95, maxDeltaE: 5.0, minEdge: 0.90},
}

// relaxedSSIM is the global fallback bar that qualifies a candidate
// regardless of its strategy tag.
const relaxedSSIM = 0.92

// Scoring weights. Quality mode shifts weight toward size because quality
// is already gated by the strategy thresholds.
const (
	defaultQualityWeight = 0.7
	defaultSizeWeight    = 0.3
	gatedQualityWeight   = 0.5
	gatedSizeWeight      = 0.5
)

// meetsThresholds reports whether the metrics clear the candidate's
// strategy bar or the relaxed global bar.
func meetsThresholds(m *quality.Metrics, strategy codec.Strategy) bool {
	if t, ok := thresholds[strategy]; ok {
		if m.SSIM >= t.minSSIM && m.DeltaE <= t.maxDeltaE && m.EdgePreservation >= t.minEdge {
			return true
		}
	}
	return m.SSIM >= relaxedSSIM
}

// qualityScore folds the three gated metrics into [0,1]. PSNR is reported
// but not scored; it is redundant with SSIM for ranking purposes.
func qualityScore(m *quality.Metrics) float64 {
	return 0.4*m.SSIM + 0.3*(1-math.Min(m.DeltaE/10, 1)) + 0.3*m.EdgePreservation
}

// score combines quality and size for one qualifying candidate.
func score(m *quality.Metrics, sizeKB float64, mode Mode) float64 {
	qw, sw := defaultQualityWeight, defaultSizeWeight
	if mode == ModeQuality {
		qw, sw = gatedQualityWeight, gatedSizeWeight
	}
	return qualityScore(m)*qw + (1/sizeKB)*sw
}

// decodeFunc turns a candidate buffer into a comparable pixel grid.
type decodeFunc func(ctx context.Context, buf []byte) (*pix.Pixmap, error)

// Select evaluates every candidate against the reference frame and picks
// the winner. Candidates whose output cannot be decoded or compared are
// excluded, not fatal. If no candidate qualifies, the fallback winner is
// the highest config.Quality among the successes, ties broken by
// generation order. The winner's metrics are recomputed for the report.
//
// Deterministic: the same candidate list and reference always yield the
// same winner.
func Select(ctx context.Context, ref *pix.Pixmap, cands []Candidate, mode Mode, decode decodeFunc) (*Candidate, *quality.Metrics, error) {
	if len(cands) == 0 {
		return nil, nil, ErrNoViableCandidate
	}

	bestIdx := -1
	bestScore := math.Inf(-1)

	for i := range cands {
		cand := &cands[i]
		m, err := evaluate(ctx, ref, cand, decode)
		if err != nil {
			// Metric-evaluation failure: exclude this candidate only
			logger.Warn("candidate evaluation failed",
				"strategy", cand.Config.Strategy, "quality", cand.Config.Quality, "error", err)
			continue
		}

		if !meetsThresholds(m, cand.Config.Strategy) {
			logger.Debug("candidate below quality bar",
				"strategy", cand.Config.Strategy, "ssim", m.SSIM, "delta_e", m.DeltaE)
			continue
		}

		if s := score(m, cand.SizeKB, mode); s > bestScore {
			bestScore = s
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		bestIdx = fallbackIndex(cands)
		logger.Info("no candidate met quality criteria, falling back to highest quality",
			"strategy", cands[bestIdx].Config.Strategy, "quality", cands[bestIdx].Config.Quality)
	}

	winner := &cands[bestIdx]

	// Recompute final metrics for reporting; same inputs, same outputs.
	m, err := evaluate(ctx, ref, winner, decode)
	if err != nil {
		// The fallback winner may be unevaluable; report empty metrics
		// rather than discarding the only viable output.
		logger.Warn("winner metrics unavailable", "error", err)
		m = &quality.Metrics{}
	}
	return winner, m, nil
}

// evaluate decodes a candidate and compares it against the reference.
func evaluate(ctx context.Context, ref *pix.Pixmap, cand *Candidate, decode decodeFunc) (*quality.Metrics, error) {
	p, err := decode(ctx, cand.Buffer)
	if err != nil {
		return nil, err
	}
	return quality.Compare(ref, p)
}

// fallbackIndex picks the candidate with the highest config quality, first
// generated wins ties.
func fallbackIndex(cands []Candidate) int {
	best := 0
	for i := 1; i < len(cands); i++ {
		if cands[i].Config.Quality > cands[best].Config.Quality {
			best = i
		}
	}
	return best
}

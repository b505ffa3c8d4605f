package optimize

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gifpress/gifpress/internal/codec"
	"github.com/gifpress/gifpress/internal/logger"
	"github.com/gifpress/gifpress/internal/progress"
)

// Candidate is one fully-encoded trial output. Immutable once produced.
type Candidate struct {
	Config codec.EncodingConfig
	Buffer []byte
	SizeKB float64
}

// encodeCandidates runs every configuration through the codec. Candidate
// encodes are independent, so they run concurrently up to the worker limit;
// a failed configuration is logged and skipped, never fatal on its own. The
// returned slice preserves generation order.
func (o *Optimizer) encodeCandidates(ctx context.Context, src []byte, cfgs []codec.EncodingConfig, fn progress.Func) ([]Candidate, error) {
	workers := o.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]*Candidate, len(cfgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			buf, err := o.Codec.EncodeWebP(gctx, o.TempDir, src, cfg)
			if err != nil {
				// Per-candidate failure: recover locally by skipping
				logger.Warn("candidate encode failed",
					"strategy", cfg.Strategy, "quality", cfg.Quality, "error", err)
				return nil
			}
			results[i] = &Candidate{
				Config: cfg,
				Buffer: buf,
				SizeKB: float64(len(buf)) / 1024.0,
			}
			fn.Report(progress.PhaseAnalyzing, float64(i+1)/float64(len(cfgs))*100,
				fmt.Sprintf("encoded %s candidate (%.1f KB)", cfg.Strategy, results[i].SizeKB))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cands := make([]Candidate, 0, len(cfgs))
	for _, r := range results {
		if r != nil {
			cands = append(cands, *r)
		}
	}
	if len(cands) == 0 {
		return nil, ErrNoViableCandidate
	}
	return cands, nil
}

// Package optimize implements the quality-guided candidate search: generate
// a bounded set of encoding configurations, encode each through the codec
// service, judge every successful candidate against the reference frame with
// the perceptual metrics, and pick a winner under the scoring and fallback
// policy.
package optimize

import (
	"context"
	"errors"
	"fmt"

	"github.com/gifpress/gifpress/internal/codec"
	"github.com/gifpress/gifpress/internal/dedup"
	"github.com/gifpress/gifpress/internal/logger"
	"github.com/gifpress/gifpress/internal/meta"
	"github.com/gifpress/gifpress/internal/pix"
	"github.com/gifpress/gifpress/internal/progress"
)

// ErrNoViableCandidate is returned when every encoding configuration failed.
var ErrNoViableCandidate = errors.New("no viable candidate: every encoding configuration failed")

// Mode selects the optimization goal.
type Mode int

const (
	// ModeQuality preserves fidelity: the generator emits the strategy
	// lattice from strictest to most aggressive.
	ModeQuality Mode = iota

	// ModeSize chases small output: a quality/effort cross product, all
	// declared lossy.
	ModeSize
)

// ParseMode maps a config/CLI string onto a Mode. Unknown values mean
// quality mode.
func ParseMode(s string) Mode {
	if s == "size" {
		return ModeSize
	}
	return ModeQuality
}

func (m Mode) String() string {
	if m == ModeSize {
		return "size"
	}
	return "quality"
}

// Optimizer runs one optimization per call. It holds no per-run state:
// every run is a pure function of the input buffer and mode.
type Optimizer struct {
	Codec          *codec.Codec
	TempDir        string
	MaxCandidates  int
	DedupThreshold int
	FrameCap       int
	Workers        int // concurrent candidate encodes, min 1
}

// Run optimizes one GIF buffer and returns the winning candidate with its
// metrics and compression statistics. The caller receives either a complete
// result or a single terminal error; there are no partial states.
func (o *Optimizer) Run(ctx context.Context, src []byte, mode Mode, fn progress.Func) (*Result, error) {
	fn.Report(progress.PhaseLoading, 0, "analyzing source")

	analyzer := &meta.Analyzer{Codec: o.Codec, TempDir: o.TempDir, FrameCap: o.FrameCap}
	md, err := analyzer.Analyze(ctx, src)
	if err != nil {
		return nil, err
	}
	logger.Debug("source analyzed",
		"frames", md.FrameCount, "fps", md.FPS,
		"size", fmt.Sprintf("%dx%d", md.Width, md.Height),
		"alpha", md.HasAlpha, "palette", md.PaletteSize)
	fn.Report(progress.PhaseLoading, 100, "source analyzed")

	frames, err := pix.DecodeGIF(src)
	if err != nil {
		return nil, err
	}
	fn.ReportFrames(progress.PhaseExtracting, 100, "frames decoded", len(frames), len(frames))
	ref := frames[0].Pix

	// Dedup is CPU-bound and independent of the encoding search; run it off
	// the main control flow. The generator blocks on its output.
	keepCh := make(chan []int, 1)
	go func() {
		keepCh <- dedup.KeepFrames(frames, o.DedupThreshold, fn)
	}()

	var framesToKeep []int
	select {
	case framesToKeep = <-keepCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	cfgs := Generate(md, framesToKeep, mode, o.MaxCandidates)
	fn.Report(progress.PhaseAnalyzing, 0,
		fmt.Sprintf("trying %d candidate encodings", len(cfgs)))

	cands, err := o.encodeCandidates(ctx, src, cfgs, fn)
	if err != nil {
		return nil, err
	}

	winner, metrics, err := Select(ctx, ref, cands, mode, o.decodeCandidate)
	if err != nil {
		return nil, err
	}

	stats := computeStats(int64(len(src)), int64(len(winner.Buffer)), md)
	fn.Report(progress.PhaseComplete, 100, "optimization complete")

	return &Result{
		Buffer:     winner.Buffer,
		Config:     winner.Config,
		Metrics:    *metrics,
		Meta:       *md,
		Stats:      stats,
		FramesKept: framesToKeep,
		Tried:      len(cfgs),
		Encoded:    len(cands),
	}, nil
}

// decodeCandidate turns a candidate's buffer into the pixel grid the metric
// engine compares against the reference.
func (o *Optimizer) decodeCandidate(ctx context.Context, buf []byte) (*pix.Pixmap, error) {
	return o.Codec.FirstFrame(ctx, o.TempDir, buf)
}

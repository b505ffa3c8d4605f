package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	gifpress "github.com/gifpress/gifpress"
	"github.com/gifpress/gifpress/internal/codec"
	"github.com/gifpress/gifpress/internal/config"
	"github.com/gifpress/gifpress/internal/jobs"
	"github.com/gifpress/gifpress/internal/logger"
	"github.com/gifpress/gifpress/internal/optimize"
	"github.com/gifpress/gifpress/internal/progress"
	"github.com/gifpress/gifpress/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ./config/gifpress.yaml)")
	input := flag.String("in", "", "Input GIF file, or a directory for batch mode")
	output := flag.String("out", "", "Output path (file mode) or directory (batch mode)")
	modeFlag := flag.String("mode", "", "Optimization mode: quality or size (overrides config)")
	workers := flag.Int("workers", 0, "Concurrent jobs in batch mode (overrides config)")
	recent := flag.Int("recent", 0, "Print the N most recent runs from history and exit")
	keepLarger := flag.Bool("keep-larger", false, "Write output even when larger than the source")
	flag.Parse()

	cfgPath := *configPath
	if cfgPath == "" {
		if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
			cfgPath = envPath
		} else {
			cfgPath = "config/gifpress.yaml"
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Init("info")
		logger.Warn("Could not load config", "path", cfgPath, "error", err)
		cfg = config.DefaultConfig()
	}
	logger.Init(cfg.LogLevel)

	// Environment and flag overrides
	if envCodec := os.Getenv("CODEC_PATH"); envCodec != "" {
		cfg.CodecPath = envCodec
	}
	if envTemp := os.Getenv("TEMP_PATH"); envTemp != "" {
		cfg.TempPath = envTemp
	}
	if *modeFlag != "" {
		cfg.Mode = *modeFlag
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *keepLarger {
		cfg.KeepLarger = true
	}

	var hist *store.SQLiteStore
	if cfg.HistoryDB {
		configDir := filepath.Dir(cfgPath)
		if configDir == "." {
			configDir = "config"
		}
		hist, err = store.NewSQLiteStore(filepath.Join(configDir, "gifpress.db"))
		if err != nil {
			logger.Warn("History database unavailable, continuing without it", "error", err)
			hist = nil
		} else {
			defer hist.Close()
		}
	}

	if *recent > 0 {
		if hist == nil {
			fmt.Fprintln(os.Stderr, "history database is disabled")
			os.Exit(1)
		}
		printRecent(hist, *recent)
		return
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: gifpress -in <file.gif|directory> [-out path] [-mode quality|size]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	version, err := codec.Detect(cfg.CodecPath)
	if err != nil {
		logger.Error("Codec binary not usable", "path", cfg.CodecPath, "error", err)
		os.Exit(1)
	}

	mode := optimize.ParseMode(cfg.Mode)

	fmt.Printf("gifpress v%s\n", gifpress.Version)
	fmt.Printf("  Codec:   %s\n", version)
	fmt.Printf("  Mode:    %s\n", mode)
	if hist != nil {
		fmt.Printf("  History: %s\n", hist.Path())
	}
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opt := &optimize.Optimizer{
		Codec:          codec.New(cfg.CodecPath),
		TempDir:        cfg.GetTempDir(),
		MaxCandidates:  cfg.MaxCandidates,
		DedupThreshold: cfg.DedupThreshold,
		FrameCap:       cfg.FrameCap,
		Workers:        cfg.Workers,
	}

	info, err := os.Stat(*input)
	if err != nil {
		logger.Error("Cannot read input", "path", *input, "error", err)
		os.Exit(1)
	}

	if info.IsDir() {
		if err := runBatch(ctx, cfg, opt, hist, mode, *input, *output); err != nil {
			logger.Error("Batch run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	outPath := *output
	if outPath == "" {
		outPath = cfg.GetOutputPath(*input)
	}
	if err := runSingle(ctx, cfg, opt, hist, mode, *input, outPath); err != nil {
		logger.Error("Optimization failed", "input", *input, "error", err)
		os.Exit(1)
	}
}

// runSingle optimizes one file with console progress reporting.
func runSingle(ctx context.Context, cfg *config.Config, opt *optimize.Optimizer, hist *store.SQLiteStore, mode optimize.Mode, inputPath, outPath string) error {
	// Updates arrive from concurrent candidate encodes
	var mu sync.Mutex
	var lastPhase progress.Phase
	report := progress.Func(func(u progress.Update) {
		mu.Lock()
		defer mu.Unlock()
		if u.Phase != lastPhase {
			lastPhase = u.Phase
			fmt.Printf("  %-11s %s\n", u.Phase, u.Message)
		}
	})

	result, written, err := optimizeFile(ctx, cfg, opt, hist, mode, inputPath, outPath, report)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  Input:      %s (%s)\n", inputPath, humanize.Bytes(uint64(result.Stats.OriginalBytes)))
	if written {
		fmt.Printf("  Output:     %s (%s)\n", outPath, humanize.Bytes(uint64(result.Stats.CompressedBytes)))
	} else {
		fmt.Printf("  Output:     not written, result is larger than the source (%s)\n",
			humanize.Bytes(uint64(result.Stats.CompressedBytes)))
	}
	fmt.Printf("  Strategy:   %s (quality %d)\n", result.Config.Strategy, result.Config.Quality)
	fmt.Printf("  Savings:    %.1f%% (%s)\n", result.Stats.SavingsPercent,
		humanize.Bytes(uint64(max64(result.Stats.SpaceSaved, 0))))
	fmt.Printf("  Quality:    ssim %.3f, deltaE %.2f, edges %.3f\n",
		result.Metrics.SSIM, result.Metrics.DeltaE, result.Metrics.EdgePreservation)
	fmt.Printf("  Frames:     %d source, %d distinct\n", result.Meta.FrameCount, len(result.FramesKept))
	fmt.Printf("  Candidates: %d tried, %d encoded\n", result.Tried, result.Encoded)
	return nil
}

// runBatch queues every .gif under dir and drains the queue with the
// configured worker count.
func runBatch(ctx context.Context, cfg *config.Config, opt *optimize.Optimizer, hist *store.SQLiteStore, mode optimize.Mode, dir, outDir string) error {
	queue := jobs.NewQueue()

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".gif") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		// Idempotence: an output newer than its source is already done
		if out, err := os.Stat(outputFor(cfg, path, outDir)); err == nil && out.ModTime().After(info.ModTime()) {
			logger.Debug("Skipping, output is newer than source", "input", path)
			return nil
		}
		queue.Add(path, info.Size())
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}

	total := queue.Stats().Total
	if total == 0 {
		fmt.Println("  No .gif files found")
		return nil
	}
	fmt.Printf("  Queued %d files, %d workers\n\n", total, cfg.Workers)

	pool := jobs.NewWorkerPool(queue, cfg.Workers, func(ctx context.Context, job *jobs.Job) (string, int64, string, error) {
		outPath := outputFor(cfg, job.InputPath, outDir)
		result, written, err := optimizeFile(ctx, cfg, opt, hist, mode, job.InputPath, outPath, nil)
		if err != nil {
			return "", 0, "", err
		}
		if !written {
			outPath = ""
		}
		return outPath, result.Stats.CompressedBytes, string(result.Config.Strategy), nil
	})

	runErr := pool.Run(ctx)

	s := queue.Stats()
	fmt.Printf("\n  Done: %d complete, %d failed, %d cancelled\n", s.Complete, s.Failed, s.Cancelled)
	fmt.Printf("  Space saved: %s\n", humanize.Bytes(uint64(max64(s.SpaceSaved, 0))))
	if hist != nil {
		if session, lifetime, err := hist.SessionLifetimeStats(); err == nil {
			fmt.Printf("  Lifetime saved: %s (session %s)\n",
				humanize.Bytes(uint64(lifetime)), humanize.Bytes(uint64(session)))
		}
	}
	return runErr
}

// optimizeFile runs the optimizer on one file, applies the output write
// policy, and records the run in history. It reports whether the output
// file was written.
func optimizeFile(ctx context.Context, cfg *config.Config, opt *optimize.Optimizer, hist *store.SQLiteStore, mode optimize.Mode, inputPath, outPath string, report progress.Func) (*optimize.Result, bool, error) {
	src, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", inputPath, err)
	}

	result, err := opt.Run(ctx, src, mode, report)
	if err != nil {
		return nil, false, err
	}

	written := false
	if result.Stats.SpaceSaved > 0 || cfg.KeepLarger {
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return nil, false, err
		}
		if err := os.WriteFile(outPath, result.Buffer, 0644); err != nil {
			return nil, false, fmt.Errorf("write %s: %w", outPath, err)
		}
		written = true
	} else {
		logger.Warn("Output larger than source, not written", "input", inputPath,
			"original", result.Stats.OriginalBytes, "compressed", result.Stats.CompressedBytes)
	}

	if hist != nil {
		saveRun(hist, result, mode, inputPath, outPath, written)
	}
	return result, written, nil
}

func saveRun(hist *store.SQLiteStore, result *optimize.Result, mode optimize.Mode, inputPath, outPath string, written bool) {
	run := &store.Run{
		ID:               uuid.NewString(),
		InputPath:        inputPath,
		Mode:             mode.String(),
		Strategy:         string(result.Config.Strategy),
		Quality:          result.Config.Quality,
		OriginalBytes:    result.Stats.OriginalBytes,
		CompressedBytes:  result.Stats.CompressedBytes,
		SpaceSaved:       result.Stats.SpaceSaved,
		SavingsPercent:   result.Stats.SavingsPercent,
		BitsPerPixel:     result.Stats.BitsPerPixel,
		SSIM:             result.Metrics.SSIM,
		PSNR:             result.Metrics.PSNR,
		DeltaE:           result.Metrics.DeltaE,
		EdgePreservation: result.Metrics.EdgePreservation,
		FrameCount:       result.Meta.FrameCount,
		FramesKept:       len(result.FramesKept),
		Width:            result.Meta.Width,
		Height:           result.Meta.Height,
		CreatedAt:        time.Now(),
	}
	if written {
		run.OutputPath = outPath
	}
	if err := hist.SaveRun(run); err != nil {
		logger.Warn("Failed to record run", "input", inputPath, "error", err)
		return
	}
	if written && run.SpaceSaved > 0 {
		if err := hist.AddToLifetimeSaved(run.SpaceSaved); err != nil {
			logger.Warn("Failed to update saved counters", "error", err)
		}
	}
}

func printRecent(hist *store.SQLiteStore, n int) {
	runs, err := hist.RecentRuns(n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read history: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("  No runs recorded yet")
		return
	}
	for _, r := range runs {
		fmt.Printf("  %s  %-40s %s -> %s (%.1f%%, %s, ssim %.3f)\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			filepath.Base(r.InputPath),
			humanize.Bytes(uint64(r.OriginalBytes)),
			humanize.Bytes(uint64(r.CompressedBytes)),
			r.SavingsPercent, r.Strategy, r.SSIM)
	}
}

func outputFor(cfg *config.Config, inputPath, outDir string) string {
	if outDir != "" {
		base := filepath.Base(inputPath)
		name := strings.TrimSuffix(base, filepath.Ext(base)) + ".webp"
		return filepath.Join(outDir, name)
	}
	return cfg.GetOutputPath(inputPath)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

package store

import "time"

// Run records one completed optimization: what went in, which encoding
// won, and what the quality metrics said about it.
type Run struct {
	ID               string    `json:"id"`
	InputPath        string    `json:"input_path"`
	OutputPath       string    `json:"output_path"`
	Mode             string    `json:"mode"`
	Strategy         string    `json:"strategy"`
	Quality          int       `json:"quality"`
	OriginalBytes    int64     `json:"original_bytes"`
	CompressedBytes  int64     `json:"compressed_bytes"`
	SpaceSaved       int64     `json:"space_saved"`
	SavingsPercent   float64   `json:"savings_percent"`
	BitsPerPixel     float64   `json:"bits_per_pixel"`
	SSIM             float64   `json:"ssim"`
	PSNR             float64   `json:"psnr"`
	DeltaE           float64   `json:"delta_e"`
	EdgePreservation float64   `json:"edge_preservation"`
	FrameCount       int       `json:"frame_count"`
	FramesKept       int       `json:"frames_kept"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store defines the persistence interface for run history.
// Implementations must be safe for concurrent use.
type Store interface {
	// SaveRun persists a run. If the run already exists (by ID), it is updated.
	SaveRun(run *Run) error

	// GetRun retrieves a run by ID. Returns nil if not found.
	GetRun(id string) (*Run, error)

	// RecentRuns returns the most recent runs, newest first.
	RecentRuns(limit int) ([]*Run, error)

	// AddToLifetimeSaved increments the session and lifetime saved counters.
	// Call this when an optimization completes successfully.
	AddToLifetimeSaved(bytes int64) error

	// SessionLifetimeStats returns the session and lifetime saved bytes.
	SessionLifetimeStats() (sessionSaved, lifetimeSaved int64, err error)

	// ResetSession resets the session saved counter to 0.
	ResetSession() error

	// Stats returns history statistics.
	Stats() (Stats, error)

	// Close closes the store and releases resources.
	Close() error
}

// Stats holds aggregate history statistics.
type Stats struct {
	Runs          int   `json:"runs"`
	SessionSaved  int64 `json:"session_saved"`  // Bytes saved this session
	LifetimeSaved int64 `json:"lifetime_saved"` // All-time bytes saved
}

package store

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	input_path TEXT NOT NULL,
	output_path TEXT,
	mode TEXT NOT NULL,
	strategy TEXT NOT NULL,
	quality INTEGER NOT NULL DEFAULT 0,
	original_bytes INTEGER NOT NULL DEFAULT 0,
	compressed_bytes INTEGER NOT NULL DEFAULT 0,
	space_saved INTEGER NOT NULL DEFAULT 0,
	savings_percent REAL NOT NULL DEFAULT 0,
	bits_per_pixel REAL NOT NULL DEFAULT 0,
	ssim REAL,
	psnr REAL,
	delta_e REAL,
	edge_preservation REAL,
	frame_count INTEGER,
	frames_kept INTEGER,
	width INTEGER,
	height INTEGER,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL,
	applied_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS stats_metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// SQLite REAL has no infinity literal; a lossless winner's PSNR is
// stored capped at this value and read back as-is.
const psnrCap = 999.0

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.RWMutex // Protects concurrent access
	path string
}

// NewSQLiteStore creates a new SQLite-backed store.
// The database file is created if it doesn't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		// Fresh database, insert version and initialize stats_metadata
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("insert schema version: %w", err)
		}
		_, err = db.Exec(`
			INSERT OR IGNORE INTO stats_metadata (key, value) VALUES
				('session_saved', '0'),
				('lifetime_saved', '0')
		`)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init stats metadata: %w", err)
		}
	} else if err != nil {
		db.Close()
		return nil, fmt.Errorf("check schema version: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// SaveRun persists a run using INSERT OR REPLACE.
func (s *SQLiteStore) SaveRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO runs (
			id, input_path, output_path, mode, strategy, quality,
			original_bytes, compressed_bytes, space_saved, savings_percent, bits_per_pixel,
			ssim, psnr, delta_e, edge_preservation,
			frame_count, frames_kept, width, height, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.InputPath, nullString(run.OutputPath), run.Mode, run.Strategy, run.Quality,
		run.OriginalBytes, run.CompressedBytes, run.SpaceSaved, run.SavingsPercent, run.BitsPerPixel,
		run.SSIM, capPSNR(run.PSNR), run.DeltaE, run.EdgePreservation,
		run.FrameCount, run.FramesKept, run.Width, run.Height, formatTime(run.CreatedAt),
	)
	return err
}

const runColumns = `
	id, input_path, output_path, mode, strategy, quality,
	original_bytes, compressed_bytes, space_saved, savings_percent, bits_per_pixel,
	ssim, psnr, delta_e, edge_preservation,
	frame_count, frames_kept, width, height, created_at
`

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// RecentRuns returns the most recent runs, newest first.
func (s *SQLiteStore) RecentRuns(limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AddToLifetimeSaved increments both session and lifetime saved counters.
func (s *SQLiteStore) AddToLifetimeSaved(bytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE stats_metadata
		SET value = CAST((CAST(value AS INTEGER) + ?) AS TEXT),
		    updated_at = datetime('now')
		WHERE key IN ('session_saved', 'lifetime_saved')
	`, bytes)
	return err
}

// SessionLifetimeStats returns the session and lifetime saved bytes.
func (s *SQLiteStore) SessionLifetimeStats() (sessionSaved, lifetimeSaved int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessionStr, lifetimeStr string
	err = s.db.QueryRow(`SELECT value FROM stats_metadata WHERE key = 'session_saved'`).Scan(&sessionStr)
	if err != nil && err != sql.ErrNoRows {
		return 0, 0, fmt.Errorf("get session saved: %w", err)
	}
	err = s.db.QueryRow(`SELECT value FROM stats_metadata WHERE key = 'lifetime_saved'`).Scan(&lifetimeStr)
	if err != nil && err != sql.ErrNoRows {
		return 0, 0, fmt.Errorf("get lifetime saved: %w", err)
	}

	sessionSaved, _ = strconv.ParseInt(sessionStr, 10, 64)
	lifetimeSaved, _ = strconv.ParseInt(lifetimeStr, 10, 64)
	return sessionSaved, lifetimeSaved, nil
}

// ResetSession resets the session saved counter to 0.
func (s *SQLiteStore) ResetSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE stats_metadata SET value = '0', updated_at = datetime('now')
		WHERE key = 'session_saved'
	`)
	return err
}

// Stats returns history statistics.
func (s *SQLiteStore) Stats() (Stats, error) {
	var stats Stats

	session, lifetime, err := s.SessionLifetimeStats()
	if err != nil {
		return stats, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&stats.Runs); err != nil {
		return stats, err
	}
	stats.SessionSaved = session
	stats.LifetimeSaved = lifetime
	return stats, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Helper functions for scanning rows

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var outputPath sql.NullString
	var ssim, psnr, deltaE, edge sql.NullFloat64
	var frameCount, framesKept, width, height sql.NullInt64
	var createdAt string

	err := row.Scan(
		&run.ID, &run.InputPath, &outputPath, &run.Mode, &run.Strategy, &run.Quality,
		&run.OriginalBytes, &run.CompressedBytes, &run.SpaceSaved, &run.SavingsPercent, &run.BitsPerPixel,
		&ssim, &psnr, &deltaE, &edge,
		&frameCount, &framesKept, &width, &height, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	run.OutputPath = outputPath.String
	run.SSIM = ssim.Float64
	run.PSNR = psnr.Float64
	run.DeltaE = deltaE.Float64
	run.EdgePreservation = edge.Float64
	run.FrameCount = int(frameCount.Int64)
	run.FramesKept = int(framesKept.Int64)
	run.Width = int(width.Int64)
	run.Height = int(height.Int64)
	run.CreatedAt = parseTime(createdAt)

	return &run, nil
}

// Helper functions for SQL values

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func capPSNR(v float64) float64 {
	if math.IsInf(v, 1) || v > psnrCap {
		return psnrCap
	}
	return v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

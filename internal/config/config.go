package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// CodecPath is the path to the ffmpeg binary (default: "ffmpeg")
	CodecPath string `yaml:"codec_path"`

	// TempPath is where per-candidate scratch directories are created.
	// If empty, the OS temp directory is used.
	TempPath string `yaml:"temp_path"`

	// OutputDir is where optimized .webp files are written.
	// If empty, output goes next to the source file.
	OutputDir string `yaml:"output_dir"`

	// Workers is the number of concurrent optimization jobs in batch mode (default 1)
	Workers int `yaml:"workers"`

	// Mode selects the default optimization mode: "quality" or "size"
	Mode string `yaml:"mode"`

	// MaxCandidates caps how many encoding configurations are tried per source (default 8)
	MaxCandidates int `yaml:"max_candidates"`

	// DedupThreshold is the Hamming distance (in bits, out of 256) a frame's
	// perceptual hash must exceed against the last kept frame to be kept (default 8)
	DedupThreshold int `yaml:"dedup_threshold"`

	// FrameCap bounds how many frames the metadata analyzer will count (default 1000)
	FrameCap int `yaml:"frame_cap"`

	// KeepLarger writes the output even when it is larger than the source.
	// Off by default: a "compressed" file bigger than the original is a regression.
	KeepLarger bool `yaml:"keep_larger"`

	// HistoryDB enables the SQLite run-history database (default true)
	HistoryDB bool `yaml:"history_db"`

	// LogLevel sets logging verbosity: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		CodecPath:      "ffmpeg",
		TempPath:       "",
		OutputDir:      "",
		Workers:        1,
		Mode:           "quality",
		MaxCandidates:  8,
		DedupThreshold: 8,
		FrameCap:       1000,
		HistoryDB:      true,
		LogLevel:       "info",
	}
}

// Load reads config from a YAML file, applying defaults for missing values.
// A missing file is not an error - defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Re-apply defaults for values the file zeroed or omitted
	if cfg.CodecPath == "" {
		cfg.CodecPath = "ffmpeg"
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Mode != "size" {
		cfg.Mode = "quality"
	}
	if cfg.MaxCandidates < 1 {
		cfg.MaxCandidates = 8
	}
	if cfg.DedupThreshold < 1 {
		cfg.DedupThreshold = 8
	}
	if cfg.FrameCap < 1 {
		cfg.FrameCap = 1000
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// Save writes the config to a YAML file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetTempDir returns the base directory for scratch space.
// If TempPath is set, returns that; otherwise the OS temp directory.
func (c *Config) GetTempDir() string {
	if c.TempPath != "" {
		return c.TempPath
	}
	return os.TempDir()
}

// GetOutputPath returns where the optimized file for sourcePath should go.
func (c *Config) GetOutputPath(sourcePath string) string {
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)] + ".webp"
	if c.OutputDir != "" {
		return filepath.Join(c.OutputDir, name)
	}
	return filepath.Join(filepath.Dir(sourcePath), name)
}

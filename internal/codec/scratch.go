package codec

import (
	"os"
	"path/filepath"
)

// Scratch is a private temp directory for one codec interaction. Every
// acquire must be paired with Remove on all exit paths; intermediate
// artifacts (input copies, palette images, frame snapshots) never outlive
// the interaction that created them.
type Scratch struct {
	dir string
}

// NewScratch creates a scratch directory under baseDir. An empty baseDir
// uses the OS temp directory.
func NewScratch(baseDir, label string) (*Scratch, error) {
	dir, err := os.MkdirTemp(baseDir, "gifpress-"+label+"-")
	if err != nil {
		return nil, err
	}
	return &Scratch{dir: dir}, nil
}

// Path returns the absolute path for a named artifact inside the scratch.
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// WriteFile writes a named artifact and returns its path.
func (s *Scratch) WriteFile(name string, data []byte) (string, error) {
	p := s.Path(name)
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", err
	}
	return p, nil
}

// Remove deletes the scratch directory and everything in it. Removal errors
// are ignored: the OS temp reaper is the backstop.
func (s *Scratch) Remove() {
	if s != nil && s.dir != "" {
		os.RemoveAll(s.dir)
	}
}

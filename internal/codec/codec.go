// Package codec wraps the external encoder binary (ffmpeg). The optimizer
// treats it as a black box: it issues parameter sets assembled from an
// EncodingConfig and receives byte buffers or failures back. Nothing in this
// package inspects encoder internals.
package codec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCodecNotFound is returned by Detect when the binary cannot be run.
var ErrCodecNotFound = errors.New("codec binary not found")

// Codec invokes the external encoder binary.
type Codec struct {
	path string
}

// New returns a codec bound to the given binary path.
func New(path string) *Codec {
	if path == "" {
		path = "ffmpeg"
	}
	return &Codec{path: path}
}

// Path returns the configured binary path.
func (c *Codec) Path() string {
	return c.path
}

// Detect verifies the codec binary is runnable and returns its version line.
func Detect(path string) (string, error) {
	out, err := exec.Command(path, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrCodecNotFound, path, err)
	}
	lines := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)
	return lines[0], nil
}

// run executes one codec invocation and wraps failures with the tail of the
// combined output, which is where the binary reports what went wrong.
func (c *Codec) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, c.path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("codec invocation failed: %w (%s)", err, lastLines(string(output), 3))
	}
	return nil
}

// lastLines returns the last n non-empty lines from output, joined.
func lastLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

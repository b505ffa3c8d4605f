package codec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gifpress/gifpress/internal/pix"
)

// CountFrames asks the codec to decode every frame of the source into a
// lossless snapshot and counts the successes, up to maxFrames. A decode
// failure after at least one frame is treated as end-of-stream, not an
// error; a failure before any frame is an input error.
func (c *Codec) CountFrames(ctx context.Context, tempDir string, input []byte, maxFrames int) (int, error) {
	scratch, err := NewScratch(tempDir, "frames")
	if err != nil {
		return 0, fmt.Errorf("create scratch: %w", err)
	}
	defer scratch.Remove()

	inPath, err := scratch.WriteFile("in.gif", input)
	if err != nil {
		return 0, fmt.Errorf("write input: %w", err)
	}

	runErr := c.run(ctx,
		"-i", inPath,
		"-vsync", "0",
		"-frames:v", fmt.Sprintf("%d", maxFrames),
		scratch.Path("frame_%04d.png"))

	matches, globErr := filepath.Glob(scratch.Path("frame_*.png"))
	if globErr != nil {
		return 0, globErr
	}

	if len(matches) == 0 {
		if runErr != nil {
			return 0, fmt.Errorf("source not decodable: %w", runErr)
		}
		return 0, fmt.Errorf("source produced no frames")
	}
	return len(matches), nil
}

// FirstFrame decodes the first frame of an encoded buffer into a pixel grid.
// Still formats decode in-process; animated WebP needs the codec to extract
// a first-frame snapshot.
func (c *Codec) FirstFrame(ctx context.Context, tempDir string, buf []byte) (*pix.Pixmap, error) {
	if p, err := pix.DecodeStill(buf); err == nil {
		return p, nil
	}

	scratch, err := NewScratch(tempDir, "decode")
	if err != nil {
		return nil, fmt.Errorf("create scratch: %w", err)
	}
	defer scratch.Remove()

	inPath, err := scratch.WriteFile("in.webp", buf)
	if err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}
	outPath := scratch.Path("first.png")

	if err := c.run(ctx, "-i", inPath, "-frames:v", "1", outPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return pix.DecodeStill(data)
}

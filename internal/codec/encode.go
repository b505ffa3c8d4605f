package codec

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EncodeWebP runs one candidate encode: the input buffer is written to a
// fresh scratch space, the filter chain and output parameters are assembled
// from cfg, and the resulting animated WebP buffer is returned. The scratch
// space, including any intermediate palette image, is removed on every exit
// path.
func (c *Codec) EncodeWebP(ctx context.Context, tempDir string, input []byte, cfg EncodingConfig) ([]byte, error) {
	scratch, err := NewScratch(tempDir, "encode")
	if err != nil {
		return nil, fmt.Errorf("create scratch: %w", err)
	}
	defer scratch.Remove()

	inPath, err := scratch.WriteFile("in.gif", input)
	if err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}
	outPath := scratch.Path("out.webp")

	var args []string
	if cfg.UsePalette {
		args, err = c.paletteArgs(ctx, scratch, inPath, cfg)
		if err != nil {
			return nil, err
		}
	} else {
		args = []string{"-i", inPath}
		if chain := BuildFilterChain(cfg); chain != "" {
			args = append(args, "-vf", chain)
		}
	}

	args = append(args, buildEncodeArgs(cfg)...)
	args = append(args, outPath)

	if err := c.run(ctx, args...); err != nil {
		return nil, err
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return out, nil
}

// paletteArgs performs the palette-generation pass and returns the input
// arguments for a palette-mapped encode. The palette image lives in the
// candidate's scratch space and dies with it.
func (c *Codec) paletteArgs(ctx context.Context, scratch *Scratch, inPath string, cfg EncodingConfig) ([]string, error) {
	colors := cfg.PaletteColors
	if colors <= 0 || colors > 256 {
		colors = 256
	}
	dither := cfg.Dither
	if dither == "" {
		dither = "bayer"
	}

	palPath := scratch.Path("palette.png")
	stages := filterStages(cfg)

	genChain := fmt.Sprintf("palettegen=max_colors=%d:stats_mode=diff", colors)
	if len(stages) > 0 {
		genChain = strings.Join(stages, ",") + "," + genChain
	}
	if err := c.run(ctx, "-i", inPath, "-vf", genChain, palPath); err != nil {
		return nil, fmt.Errorf("palette pass: %w", err)
	}

	use := fmt.Sprintf("paletteuse=dither=%s", dither)
	var graph string
	if len(stages) > 0 {
		graph = fmt.Sprintf("[0:v]%s[x];[x][1:v]%s", strings.Join(stages, ","), use)
	} else {
		graph = fmt.Sprintf("[0:v][1:v]%s", use)
	}
	if cfg.PixelFormat != "" {
		graph = graph + "[p];[p]format=" + cfg.PixelFormat
	}

	return []string{"-i", inPath, "-i", palPath, "-lavfi", graph}, nil
}

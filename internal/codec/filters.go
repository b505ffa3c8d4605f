package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildFilterChain assembles the video filter chain for a configuration.
// Stage order is fixed: denoise, duplicate removal, frame-rate retarget,
// scale, pixel format. The palette step is not part of this chain; it is a
// separate two-pass interaction handled by EncodeWebP.
func BuildFilterChain(cfg EncodingConfig) string {
	parts := filterStages(cfg)
	if cfg.PixelFormat != "" {
		parts = append(parts, "format="+cfg.PixelFormat)
	}
	return strings.Join(parts, ",")
}

// filterStages returns the chain stages that precede the palette and pixel
// format steps, in their fixed order.
func filterStages(cfg EncodingConfig) []string {
	var parts []string
	if cfg.Denoise > 0 {
		parts = append(parts, fmt.Sprintf("hqdn3d=%.1f", cfg.Denoise))
	}
	if cfg.RemoveDups {
		parts = append(parts, "mpdecimate")
	}
	if cfg.FPS > 0 {
		parts = append(parts, fmt.Sprintf("fps=%g", cfg.FPS))
	}
	if cfg.ScaleWidth > 0 {
		filter := cfg.ScaleFilter
		if filter == "" {
			filter = "lanczos"
		}
		parts = append(parts, fmt.Sprintf("scale=%d:-2:flags=%s", cfg.ScaleWidth, filter))
	}
	return parts
}

// buildEncodeArgs maps an EncodingConfig onto this codec's output
// parameters. The mapping is specific to the libwebp encoder vocabulary;
// the rest of the optimizer only sees EncodingConfig fields.
func buildEncodeArgs(cfg EncodingConfig) []string {
	args := []string{"-c:v", "libwebp_anim"}

	switch {
	case cfg.Lossless:
		args = append(args, "-lossless", "1", "-quality", strconv.Itoa(cfg.Quality))
	case cfg.NearLossless >= 0:
		// This encoder has no separate near-lossless knob; strictness is
		// expressed through the lossless path's quality parameter, with
		// lower strength values mapping closer to exact reproduction.
		args = append(args, "-lossless", "1", "-quality", strconv.Itoa(100-cfg.NearLossless))
	default:
		args = append(args, "-lossless", "0", "-quality", strconv.Itoa(cfg.Quality))
	}

	args = append(args, "-compression_level", strconv.Itoa(cfg.Effort))

	if cfg.SharpYUV {
		args = append(args, "-preset", "photo")
	}

	// DeltaFrames has no dedicated parameter here: the animated muxer
	// already delta-encodes between frames. The flag still gates the
	// duplicate-removal filter upstream.

	args = append(args, "-loop", "0", "-an")
	return args
}

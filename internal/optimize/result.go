package optimize

import (
	"github.com/gifpress/gifpress/internal/codec"
	"github.com/gifpress/gifpress/internal/meta"
	"github.com/gifpress/gifpress/internal/quality"
)

// CompressionStats summarizes what the winning candidate bought.
type CompressionStats struct {
	OriginalBytes   int64
	CompressedBytes int64
	SpaceSaved      int64
	SavingsPercent  float64
	BitsPerPixel    float64
}

// Result is the externally visible artifact of one optimization run.
type Result struct {
	Buffer     []byte
	Config     codec.EncodingConfig
	Metrics    quality.Metrics
	Meta       meta.SourceMetadata
	Stats      CompressionStats
	FramesKept []int
	Tried      int // configurations generated
	Encoded    int // configurations that produced a candidate
}

// computeStats derives the compression statistics. Bits-per-pixel spreads
// the compressed size over every pixel of every source frame.
func computeStats(originalBytes, compressedBytes int64, md *meta.SourceMetadata) CompressionStats {
	stats := CompressionStats{
		OriginalBytes:   originalBytes,
		CompressedBytes: compressedBytes,
		SpaceSaved:      originalBytes - compressedBytes,
	}

	if originalBytes > 0 {
		stats.SavingsPercent = (1 - float64(compressedBytes)/float64(originalBytes)) * 100
	}

	pixels := int64(md.Width) * int64(md.Height) * int64(md.FrameCount)
	if pixels > 0 {
		stats.BitsPerPixel = float64(compressedBytes) * 8 / float64(pixels)
	}

	return stats
}

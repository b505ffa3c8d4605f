package optimize

import (
	"math"
	"testing"
)

func TestComputeStatsScenario(t *testing.T) {
	// 50-frame 500x500 alpha-less source: 2500 KB original, 850 KB winner
	source := md(50, 500, 500, false, 0)
	stats := computeStats(2500*1024, 850*1024, source)

	if math.Abs(stats.BitsPerPixel-0.557) > 0.001 {
		t.Errorf("BitsPerPixel = %.4f, want ~0.557", stats.BitsPerPixel)
	}
	if math.Abs(stats.SavingsPercent-66.0) > 0.01 {
		t.Errorf("SavingsPercent = %.2f, want ~66.0", stats.SavingsPercent)
	}
	if stats.SpaceSaved != (2500-850)*1024 {
		t.Errorf("SpaceSaved = %d", stats.SpaceSaved)
	}
}

func TestComputeStatsZeroGuards(t *testing.T) {
	stats := computeStats(0, 0, md(0, 0, 0, false, 0))
	if stats.SavingsPercent != 0 || stats.BitsPerPixel != 0 {
		t.Errorf("zero input produced %+v", stats)
	}
}

func TestComputeStatsGrowth(t *testing.T) {
	// Output larger than input: negative savings, never a panic
	stats := computeStats(100, 150, md(1, 10, 10, false, 0))
	if stats.SavingsPercent >= 0 {
		t.Errorf("SavingsPercent = %v, want negative", stats.SavingsPercent)
	}
	if stats.SpaceSaved != -50 {
		t.Errorf("SpaceSaved = %d, want -50", stats.SpaceSaved)
	}
}

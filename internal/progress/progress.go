// Package progress defines the reporting boundary between the optimizer and
// its caller. Updates are advisory: consumers may ignore them with no effect
// on correctness.
package progress

// Phase identifies which stage of an optimization run an update belongs to.
type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseExtracting Phase = "extracting"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseComplete   Phase = "complete"
)

// Update is one progress report.
type Update struct {
	Phase        Phase
	Percent      float64 // 0-100
	Message      string
	CurrentFrame int // 0 when not frame-scoped
	TotalFrames  int // 0 when not frame-scoped
}

// Func receives progress updates. Implementations must be safe to call from
// multiple goroutines; the optimizer makes no ordering promise between
// concurrent candidate encodes.
type Func func(Update)

// Report invokes fn if it is non-nil. Keeps call sites free of nil checks.
func (fn Func) Report(phase Phase, percent float64, msg string) {
	if fn != nil {
		fn(Update{Phase: phase, Percent: percent, Message: msg})
	}
}

// ReportFrames invokes fn with frame counters if it is non-nil.
func (fn Func) ReportFrames(phase Phase, percent float64, msg string, current, total int) {
	if fn != nil {
		fn(Update{Phase: phase, Percent: percent, Message: msg, CurrentFrame: current, TotalFrames: total})
	}
}

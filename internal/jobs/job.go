package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a job
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusComplete  Status = "complete"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job represents one source file queued for optimization.
type Job struct {
	ID          string    `json:"id"`
	InputPath   string    `json:"input_path"`
	OutputPath  string    `json:"output_path,omitempty"` // Set after completion
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	InputSize   int64     `json:"input_size"`
	OutputSize  int64     `json:"output_size,omitempty"` // Populated after completion
	SpaceSaved  int64     `json:"space_saved,omitempty"` // InputSize - OutputSize
	Strategy    string    `json:"strategy,omitempty"`    // Winning encoding strategy
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// IsTerminal returns true if the job is in a terminal state
func (j *Job) IsTerminal() bool {
	return j.Status == StatusComplete || j.Status == StatusFailed || j.Status == StatusCancelled
}

func generateID() string {
	return uuid.NewString()
}

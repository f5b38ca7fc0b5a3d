package model

import "time"

// JobStatus represents the state of an asynchronous analysis or
// simulation job. Transitions are queued -> running -> completed|failed;
// terminal states are write-once.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether s is a terminal job status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobKind distinguishes the two asynchronous workloads.
type JobKind string

const (
	JobKindSimulation     JobKind = "simulation"
	JobKindTimingAnalysis JobKind = "timing_analysis"
)

// Job is an ephemeral handle to an asynchronous request, polled by ID.
// Result holds the success payload; Error holds the failure message.
// Background errors are captured here and never propagated synchronously.
type Job struct {
	ID        string    `json:"jobId"`
	Kind      JobKind   `json:"kind"`
	Status    JobStatus `json:"status"`
	Result    any       `json:"result"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

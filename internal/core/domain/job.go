package domain

import "time"

type JobStatus string

const (
	JobIdle       JobStatus = "idle"
	JobUploading  JobStatus = "uploading"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobError      JobStatus = "error"
	JobCancelled  JobStatus = "cancelled"
)

// Terminal reports whether a job may transition no further. Error and
// cancelled are reachable from any non-terminal state; completed only via
// processing.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobError || s == JobCancelled
}

var jobTransitions = map[JobStatus][]JobStatus{
	JobIdle:       {JobUploading, JobError, JobCancelled},
	JobUploading:  {JobProcessing, JobError, JobCancelled},
	JobProcessing: {JobCompleted, JobError, JobCancelled},
}

// CanTransition enforces the monotonic job state machine.
func (s JobStatus) CanTransition(to JobStatus) bool {
	for _, next := range jobTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// DocumentInfo is the caller-supplied description of a candidate document.
type DocumentInfo struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	MimeType    string `json:"mime_type,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// Job is the ephemeral unit of work for one submission. It never outlives the
// process and is dropped from the active set shortly after completion.
type Job struct {
	ID           string       `json:"id"`
	DocumentID   string       `json:"document_id"`
	DocumentInfo DocumentInfo `json:"document_info"`
	Status       JobStatus    `json:"status"`
	Progress     int          `json:"progress"`
	RetryCount   int          `json:"retry_count"`
	Errors       []string     `json:"errors,omitempty"`
	Warnings     []string     `json:"warnings,omitempty"`
	StartTime    time.Time    `json:"start_time"`
	EndTime      time.Time    `json:"end_time,omitzero"`
}

// ClampProgress bounds a progress value to [0,100].
func ClampProgress(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// JobEvent is one observation on a job's lifecycle stream. Subscribers (UI,
// tests, the NATS fan-out) receive these instead of nested callbacks.
type JobEvent struct {
	JobID      string    `json:"job_id"`
	DocumentID string    `json:"document_id"`
	Status     JobStatus `json:"status"`
	Progress   int       `json:"progress"`
	Warning    string    `json:"warning,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

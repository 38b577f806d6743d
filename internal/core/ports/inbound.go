package ports

import (
	"context"
	"io"

	"github.com/verityscan/verityscan/internal/core/domain"
)

// SubmitReceipt is returned to the caller as soon as a job is registered.
// The placeholder document is immediately queryable through the store.
type SubmitReceipt struct {
	JobID    string          `json:"job_id"`
	Document domain.Document `json:"document"`
}

// DocumentSubmitter is the inbound contract for submitting documents and
// steering the resulting jobs.
type DocumentSubmitter interface {
	Submit(ctx context.Context, info domain.DocumentInfo, file io.Reader) (*SubmitReceipt, error)
	CancelJob(jobID string) error
	GetJob(jobID string) (domain.Job, bool)
	ListJobs() []domain.Job
	WatchJob(jobID string) (<-chan domain.JobEvent, bool)
}

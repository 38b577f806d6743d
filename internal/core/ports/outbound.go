package ports

import (
	"context"
	"io"

	"github.com/verityscan/verityscan/internal/core/domain"
)

// AnalysisSubmission carries one document upload to the analysis service.
type AnalysisSubmission struct {
	File        io.Reader
	Filename    string
	CompanyName string
}

// AnalysisService is the outbound contract with the remote claim verification
// service.
type AnalysisService interface {
	CheckHealth(ctx context.Context) (domain.Health, error)
	Submit(ctx context.Context, sub AnalysisSubmission) (*domain.AnalysisResult, error)
}

// DocumentStore is the process-wide registry of documents and their claims.
// All reads are synchronous and recompute derived statistics from current
// data.
type DocumentStore interface {
	AddDocument(doc domain.Document) domain.Document
	UpdateDocumentStatus(id string, status domain.DocumentStatus, patch *domain.DocumentPatch) (domain.Document, error)
	GetDocumentByID(id string) (domain.Document, error)
	AllDocuments() []domain.Document
	AllClaims() []domain.Claim
	FilterClaimsByStatus(status string, documentID string) []domain.Claim
	SearchDocuments(query string) []domain.Document
	OverallStats() domain.Summary
	Clear()
}

// StagingStorage holds uploads on disk between receipt and submission.
type StagingStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	StagedPath(key string) string
	FreeBytes() (uint64, error)
}

// JobEventPublisher fans job lifecycle events out to external subscribers.
type JobEventPublisher interface {
	PublishJobEvent(ctx context.Context, event domain.JobEvent) error
}

// PDFInspector reads structural metadata from a staged PDF.
type PDFInspector interface {
	PageCount(path string) (int, error)
}

package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verityscan/verityscan/internal/companyname"
	"github.com/verityscan/verityscan/internal/core/domain"
	"github.com/verityscan/verityscan/internal/core/ports"
	"github.com/verityscan/verityscan/internal/infrastructure/resilience"
	"github.com/verityscan/verityscan/internal/validation"
)

// SubmitterConfig tunes the orchestrator's timing knobs.
type SubmitterConfig struct {
	// MinDiskHeadroom is the free-space floor below which submissions fail
	// fast with DISK_SPACE_ERROR.
	MinDiskHeadroom uint64
	// CleanupDelay is how long a staged file outlives its job before the
	// best-effort removal runs.
	CleanupDelay time.Duration
	// JobRetention is how long a finished job stays queryable.
	JobRetention time.Duration
	// ProcessingMode is recorded on every document this instance produces.
	ProcessingMode string
}

func (c SubmitterConfig) withDefaults() SubmitterConfig {
	out := c
	if out.MinDiskHeadroom == 0 {
		out.MinDiskHeadroom = 200 * 1024 * 1024
	}
	if out.CleanupDelay <= 0 {
		out.CleanupDelay = 30 * time.Second
	}
	if out.JobRetention <= 0 {
		out.JobRetention = 5 * time.Minute
	}
	if out.ProcessingMode == "" {
		out.ProcessingMode = "remote"
	}
	return out
}

// SubmitDocumentUseCase drives a submission through the job state machine:
// idle -> uploading -> processing -> completed/error, with cancelled
// reachable by explicit request. One instance serves the whole process.
type SubmitDocumentUseCase struct {
	store    ports.DocumentStore
	bridge   ports.AnalysisService
	staging  ports.StagingStorage
	pdf      ports.PDFInspector
	events   ports.JobEventPublisher
	executor *resilience.Executor
	classify resilience.ErrorClassifier
	cfg      SubmitterConfig

	registry *jobRegistry
}

func NewSubmitDocumentUseCase(
	store ports.DocumentStore,
	bridge ports.AnalysisService,
	staging ports.StagingStorage,
	pdf ports.PDFInspector,
	events ports.JobEventPublisher,
	executor *resilience.Executor,
	classify resilience.ErrorClassifier,
	cfg SubmitterConfig,
) *SubmitDocumentUseCase {
	cfg = cfg.withDefaults()
	return &SubmitDocumentUseCase{
		store:    store,
		bridge:   bridge,
		staging:  staging,
		pdf:      pdf,
		events:   events,
		executor: executor,
		classify: classify,
		cfg:      cfg,
		registry: newJobRegistry(cfg.JobRetention),
	}
}

// Submit runs one document through validation, staging, remote analysis and
// the store update, blocking until the job settles. The placeholder document
// is queryable from the moment the job is registered, so concurrent readers
// observe the submission in flight.
func (uc *SubmitDocumentUseCase) Submit(ctx context.Context, info domain.DocumentInfo, file io.Reader) (*ports.SubmitReceipt, error) {
	if err := uc.checkPreconditions(ctx); err != nil {
		return nil, err
	}

	// Defense in depth: callers validate before submitting, but their state
	// may be stale by the time the request lands here.
	if result := validation.Validate(&info); !result.Valid {
		return nil, domain.NewProcessingError(result.Code, result.Message, "")
	}

	jobID := newJobID()
	company := strings.TrimSpace(info.CompanyName)
	if company == "" {
		company = companyname.Extract(info.Name)
	}

	stagedKey, size, err := uc.stage(ctx, jobID, info.Name, file)
	if err != nil {
		return nil, err
	}

	pages := 0
	if uc.pdf != nil {
		if n, err := uc.pdf.PageCount(uc.staging.StagedPath(stagedKey)); err == nil {
			pages = n
		} else {
			slog.Warn("pdf_page_count_failed", "job_id", jobID, "error", err)
		}
	}

	placeholder := uc.store.AddDocument(domain.Document{
		Filename:       info.Name,
		CompanyName:    company,
		Status:         domain.DocumentProcessing,
		Size:           size,
		Pages:          pages,
		ProcessingMode: uc.cfg.ProcessingMode,
		UploadDate:     time.Now().UTC(),
	})

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	uc.registry.add(domain.Job{
		ID:         jobID,
		DocumentID: placeholder.ID,
		DocumentInfo: domain.DocumentInfo{
			URI:         info.URI,
			Name:        info.Name,
			Size:        size,
			MimeType:    info.MimeType,
			CompanyName: company,
		},
		Status:    domain.JobIdle,
		StartTime: time.Now().UTC(),
	}, cancel)
	defer uc.scheduleCleanup(jobID, stagedKey)

	uc.transition(ctx, jobID, domain.JobUploading, 10)

	result, submitErr := uc.callBridge(jobCtx, jobID, stagedKey, info.Name, company)
	if submitErr != nil {
		return uc.finishWithError(ctx, jobID, placeholder.ID, submitErr)
	}

	doc, err := uc.complete(ctx, jobID, placeholder.ID, company, result)
	if err != nil {
		return uc.finishWithError(ctx, jobID, placeholder.ID, err)
	}

	return &ports.SubmitReceipt{JobID: jobID, Document: doc}, nil
}

func (uc *SubmitDocumentUseCase) checkPreconditions(ctx context.Context) error {
	health, err := uc.bridge.CheckHealth(ctx)
	if err != nil {
		return domain.NewProcessingError(domain.CodePythonNotAvailable,
			"analysis service is not reachable", domain.AsProcessingError(err).Message)
	}
	if !health.Healthy {
		return domain.NewProcessingError(domain.CodePythonNotAvailable,
			"analysis service reports unhealthy", health.Detail)
	}

	free, err := uc.staging.FreeBytes()
	if err != nil {
		slog.Warn("disk_headroom_check_failed", "error", err)
		return nil
	}
	if free < uc.cfg.MinDiskHeadroom {
		return domain.NewProcessingError(domain.CodeDiskSpace,
			"not enough free space to stage the upload",
			fmt.Sprintf("free=%d required=%d", free, uc.cfg.MinDiskHeadroom))
	}
	return nil
}

func (uc *SubmitDocumentUseCase) stage(ctx context.Context, jobID, filename string, file io.Reader) (string, int64, error) {
	key := jobID + "_" + filepath.Base(filename)
	size, err := uc.staging.Save(ctx, key, file)
	if err != nil {
		return "", 0, domain.NewProcessingError(domain.CodeDiskSpace, "stage upload", err.Error())
	}
	return key, size, nil
}

// callBridge performs the remote submission under the bounded-retry policy:
// up to two extra attempts on retryable failures with linear backoff, each
// retry recorded as a job warning. Non-retryable failures abort immediately.
func (uc *SubmitDocumentUseCase) callBridge(ctx context.Context, jobID, stagedKey, filename, company string) (*domain.AnalysisResult, error) {
	uc.transition(ctx, jobID, domain.JobProcessing, 40)

	var result *domain.AnalysisResult
	attempt := func(callCtx context.Context) error {
		staged, err := uc.staging.Open(callCtx, stagedKey)
		if err != nil {
			return domain.NewProcessingError(domain.CodeFileNotFound, "reopen staged upload", err.Error())
		}
		defer staged.Close()

		res, err := uc.bridge.Submit(callCtx, ports.AnalysisSubmission{
			File:        staged,
			Filename:    filename,
			CompanyName: company,
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	}

	notify := func(attemptIdx int, wait time.Duration, err error) {
		warning := fmt.Sprintf("attempt %d failed: %s; retrying in %s",
			attemptIdx, domain.AsProcessingError(err).Message, wait)
		uc.registry.update(jobID, func(job *domain.Job) {
			job.RetryCount++
			job.Warnings = append(job.Warnings, warning)
		})
		uc.publish(ctx, jobID)
	}

	if err := uc.executor.ExecuteObserved(ctx, "analysis.submit", attempt, uc.classify, notify); err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *SubmitDocumentUseCase) complete(ctx context.Context, jobID, documentID, company string, result *domain.AnalysisResult) (domain.Document, error) {
	claims := transformClaims(result.Claims, documentID)

	if name := strings.TrimSpace(result.DocumentInfo.CompanyName); name != "" {
		company = name
	}
	doc, err := uc.store.UpdateDocumentStatus(documentID, domain.DocumentCompleted, &domain.DocumentPatch{
		Claims:         claims,
		CompanyName:    company,
		ProcessingTime: result.DocumentInfo.ProcessingTime,
		TotalSentences: result.DocumentInfo.TotalSentences,
	})
	if err != nil {
		return domain.Document{}, err
	}

	// A job cancelled while the bridge was still running keeps its cancelled
	// state and progress; only a live job settles as completed.
	job, _, _ := uc.registry.update(jobID, func(job *domain.Job) {
		if job.Status.CanTransition(domain.JobCompleted) {
			job.Status = domain.JobCompleted
			job.Progress = 100
			job.EndTime = time.Now().UTC()
		}
	})
	uc.publish(ctx, jobID)

	slog.Info("job_completed",
		"job_id", jobID,
		"document_id", documentID,
		"claims", len(claims),
		"retries", job.RetryCount,
	)
	return doc, nil
}

// finishWithError promotes both the job and its document to the error state
// and hands the normalized error back to the caller. A job already cancelled
// keeps its cancelled status.
func (uc *SubmitDocumentUseCase) finishWithError(ctx context.Context, jobID, documentID string, cause error) (*ports.SubmitReceipt, error) {
	perr := domain.AsProcessingError(cause)

	job, _, _ := uc.registry.update(jobID, func(job *domain.Job) {
		if job.Status.CanTransition(domain.JobError) {
			job.Status = domain.JobError
		}
		job.Errors = append(job.Errors, perr.Error())
		job.EndTime = time.Now().UTC()
	})
	uc.publish(ctx, jobID)

	if job.Status == domain.JobError {
		if _, err := uc.store.UpdateDocumentStatus(documentID, domain.DocumentError, &domain.DocumentPatch{
			ErrorCode:    perr.Code,
			ErrorMessage: perr.Message,
		}); err != nil {
			slog.Error("document_error_update_failed", "job_id", jobID, "document_id", documentID, "error", err)
		}
	}

	slog.Warn("job_failed",
		"job_id", jobID,
		"document_id", documentID,
		"code", string(perr.Code),
		"retries", job.RetryCount,
	)
	return nil, perr
}

// CancelJob marks the job and its document cancelled and cancels the local
// context. The remote computation is not guaranteed to stop; that is a
// documented limitation of the protocol, not an oversight.
func (uc *SubmitDocumentUseCase) CancelJob(jobID string) error {
	job, ok := uc.registry.get(jobID)
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "cancel job",
			domain.NewProcessingError(domain.CodeDocumentNotFound, fmt.Sprintf("job %s does not exist", jobID), ""))
	}
	if job.Status.Terminal() {
		return domain.WrapError(domain.ErrInvalidInput, "cancel job",
			domain.NewProcessingError(domain.CodeInvalidInput,
				fmt.Sprintf("job %s already settled as %s", jobID, job.Status), ""))
	}

	uc.registry.update(jobID, func(job *domain.Job) {
		job.Status = domain.JobCancelled
		job.EndTime = time.Now().UTC()
	})
	if cancel, ok := uc.registry.cancelFunc(jobID); ok {
		cancel()
	}
	if _, err := uc.store.UpdateDocumentStatus(job.DocumentID, domain.DocumentCancelled, nil); err != nil {
		slog.Warn("document_cancel_update_failed", "job_id", jobID, "error", err)
	}
	uc.publish(context.Background(), jobID)

	slog.Info("job_cancelled", "job_id", jobID, "document_id", job.DocumentID)
	return nil
}

func (uc *SubmitDocumentUseCase) GetJob(jobID string) (domain.Job, bool) {
	return uc.registry.get(jobID)
}

func (uc *SubmitDocumentUseCase) ListJobs() []domain.Job {
	return uc.registry.list()
}

func (uc *SubmitDocumentUseCase) WatchJob(jobID string) (<-chan domain.JobEvent, bool) {
	return uc.registry.watch(jobID)
}

func (uc *SubmitDocumentUseCase) transition(ctx context.Context, jobID string, status domain.JobStatus, progress int) {
	uc.registry.update(jobID, func(job *domain.Job) {
		if job.Status.CanTransition(status) {
			job.Status = status
			job.Progress = progress
		}
	})
	uc.publish(ctx, jobID)
}

// publish mirrors the job's latest state onto the external event stream.
// Failures are logged and swallowed: a broker outage never fails a job.
func (uc *SubmitDocumentUseCase) publish(ctx context.Context, jobID string) {
	if uc.events == nil {
		return
	}
	job, ok := uc.registry.get(jobID)
	if !ok {
		return
	}
	event := domain.JobEvent{
		JobID:      job.ID,
		DocumentID: job.DocumentID,
		Status:     job.Status,
		Progress:   job.Progress,
		Timestamp:  time.Now().UTC(),
	}
	if n := len(job.Warnings); n > 0 {
		event.Warning = job.Warnings[n-1]
	}
	if n := len(job.Errors); n > 0 {
		event.Error = job.Errors[n-1]
	}
	if err := uc.events.PublishJobEvent(ctx, event); err != nil {
		slog.Warn("job_event_publish_failed", "job_id", jobID, "error", err)
	}
}

// scheduleCleanup removes the staged file once the cleanup delay elapses.
// Best effort only: failures are logged, never surfaced.
func (uc *SubmitDocumentUseCase) scheduleCleanup(jobID, stagedKey string) {
	time.AfterFunc(uc.cfg.CleanupDelay, func() {
		if err := uc.staging.Remove(context.Background(), stagedKey); err != nil {
			slog.Warn("staged_file_cleanup_failed", "job_id", jobID, "key", stagedKey, "error", err)
			return
		}
		slog.Debug("staged_file_removed", "job_id", jobID, "key", stagedKey)
	})
}

func newJobID() string {
	return fmt.Sprintf("job_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/verityscan/verityscan/internal/core/domain"
	"github.com/verityscan/verityscan/internal/core/ports"
	"github.com/verityscan/verityscan/internal/infrastructure/resilience"
)

// fakeStore is a minimal in-memory DocumentStore for orchestrator tests.
type fakeStore struct {
	mu   sync.Mutex
	docs map[string]domain.Document
	next int
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]domain.Document)}
}

func (s *fakeStore) AddDocument(doc domain.Document) domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == "" {
		s.next++
		doc.ID = fmt.Sprintf("doc-%d", s.next)
	}
	s.docs[doc.ID] = doc
	return doc
}

func (s *fakeStore) UpdateDocumentStatus(id string, status domain.DocumentStatus, patch *domain.DocumentPatch) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, domain.WrapError(domain.ErrDocumentNotFound, "update document",
			domain.NewProcessingError(domain.CodeDocumentNotFound, "missing", ""))
	}
	doc.Status = status
	if patch != nil {
		if patch.Claims != nil {
			doc.Claims = patch.Claims
		}
		if patch.CompanyName != "" {
			doc.CompanyName = patch.CompanyName
		}
		if patch.ErrorCode != "" {
			doc.ErrorCode = patch.ErrorCode
		}
		if patch.ErrorMessage != "" {
			doc.ErrorMessage = patch.ErrorMessage
		}
		if patch.ProcessingTime > 0 {
			doc.ProcessingTime = patch.ProcessingTime
		}
		if patch.TotalSentences > 0 {
			doc.TotalSentences = patch.TotalSentences
		}
	}
	s.docs[id] = doc
	return doc, nil
}

func (s *fakeStore) GetDocumentByID(id string) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, domain.WrapError(domain.ErrDocumentNotFound, "get document",
			domain.NewProcessingError(domain.CodeDocumentNotFound, "missing", ""))
	}
	return doc, nil
}

func (s *fakeStore) AllDocuments() []domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	return docs
}

func (s *fakeStore) AllClaims() []domain.Claim                           { return nil }
func (s *fakeStore) FilterClaimsByStatus(string, string) []domain.Claim { return nil }
func (s *fakeStore) SearchDocuments(string) []domain.Document           { return nil }
func (s *fakeStore) OverallStats() domain.Summary                       { return domain.Summary{} }
func (s *fakeStore) Clear()                                             {}

// fakeBridge scripts health and per-attempt submit outcomes.
type fakeBridge struct {
	mu       sync.Mutex
	healthy  bool
	attempts int
	failures []error
	result   *domain.AnalysisResult
	onSubmit func()
	block    chan struct{}
}

func (b *fakeBridge) CheckHealth(context.Context) (domain.Health, error) {
	if !b.healthy {
		return domain.Health{Healthy: false, Status: "degraded", Detail: "model not loaded"}, nil
	}
	return domain.Health{Healthy: true, Status: "healthy"}, nil
}

func (b *fakeBridge) Submit(ctx context.Context, _ ports.AnalysisSubmission) (*domain.AnalysisResult, error) {
	b.mu.Lock()
	attempt := b.attempts
	b.attempts++
	onSubmit := b.onSubmit
	block := b.block
	b.mu.Unlock()

	if onSubmit != nil {
		onSubmit()
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, domain.NewProcessingError(domain.CodeNetwork, "submit cancelled", ctx.Err().Error())
		}
	}
	if attempt < len(b.failures) {
		return nil, b.failures[attempt]
	}
	return b.result, nil
}

func (b *fakeBridge) attemptCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// fakeStaging keeps staged payloads in a map.
type fakeStaging struct {
	mu    sync.Mutex
	files map[string][]byte
	free  uint64
}

func newFakeStaging() *fakeStaging {
	return &fakeStaging{files: make(map[string][]byte), free: 1 << 30}
}

func (s *fakeStaging) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = raw
	return int64(len(raw)), nil
}

func (s *fakeStaging) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.files[key]
	if !ok {
		return nil, errors.New("not staged")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (s *fakeStaging) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

func (s *fakeStaging) StagedPath(key string) string { return "/staged/" + key }
func (s *fakeStaging) FreeBytes() (uint64, error)   { return s.free, nil }

type fakePDF struct{ pages int }

func (p fakePDF) PageCount(string) (int, error) { return p.pages, nil }

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.JobEvent
}

func (e *fakeEvents) PublishJobEvent(_ context.Context, event domain.JobEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *fakeEvents) statuses() []domain.JobStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.JobStatus, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Status)
	}
	return out
}

func classifyForTest(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	perr := domain.AsProcessingError(err)
	return resilience.ErrorClassification{
		Retryable:     perr.Retryable(),
		RecordFailure: perr.Retryable(),
	}
}

func analysisResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		DocumentInfo: domain.AnalysisDocumentInfo{
			Filename:       "acme_report.pdf",
			CompanyName:    "Acme Corporation",
			TotalSentences: 42,
			ProcessingTime: 3.5,
		},
		Claims: []domain.AnalysisClaim{
			{
				ID:                     1.0,
				Text:                   "reduced emissions by 20%",
				Confidence:             0.7,
				ExtractedData:          domain.ExtractedData{Metric: "Emissions"},
				VerificationStatus:     "verified",
				VerificationConfidence: 0.95,
				MatchDetails: &domain.MatchDetails{
					CSVMatch:       true,
					ToleranceCheck: true,
					Reasoning:      "matches reported figures",
				},
			},
		},
		Summary: domain.AnalysisSummary{TotalClaims: 1, Verified: 1},
		Status:  "completed",
	}
}

type fixture struct {
	store   *fakeStore
	bridge  *fakeBridge
	staging *fakeStaging
	events  *fakeEvents
	uc      *SubmitDocumentUseCase
}

func newFixture(t *testing.T, bridge *fakeBridge) *fixture {
	t.Helper()
	return newFixtureWithStore(t, bridge, newFakeStore())
}

func docInfo() domain.DocumentInfo {
	return domain.DocumentInfo{
		URI:      "upload://acme_report.pdf",
		Name:     "acme_report.pdf",
		Size:     2048,
		MimeType: "application/pdf",
	}
}

func TestSubmitSuccess(t *testing.T) {
	fx := newFixture(t, &fakeBridge{healthy: true, result: analysisResult()})

	receipt, err := fx.uc.Submit(context.Background(), docInfo(), strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if receipt.JobID == "" {
		t.Fatal("expected a job id")
	}
	if receipt.Document.Status != domain.DocumentCompleted {
		t.Fatalf("expected completed document, got %s", receipt.Document.Status)
	}
	if receipt.Document.CompanyName != "Acme Corporation" {
		t.Fatalf("expected company name from the analysis result, got %q", receipt.Document.CompanyName)
	}
	if len(receipt.Document.Claims) != 1 {
		t.Fatalf("expected 1 transformed claim, got %d", len(receipt.Document.Claims))
	}
	claim := receipt.Document.Claims[0]
	if claim.Status != domain.ClaimVerified || claim.Category != "emissions" {
		t.Fatalf("unexpected claim %+v", claim)
	}
	if claim.Confidence != 0.95 {
		t.Fatalf("expected verification confidence preferred, got %f", claim.Confidence)
	}
	if claim.Evidence != 2 {
		t.Fatalf("expected evidence 2 (csv + tolerance), got %d", claim.Evidence)
	}

	job, ok := fx.uc.GetJob(receipt.JobID)
	if !ok {
		t.Fatal("expected job to remain queryable")
	}
	if job.Status != domain.JobCompleted || job.Progress != 100 {
		t.Fatalf("unexpected job state %s/%d", job.Status, job.Progress)
	}
	if job.EndTime.IsZero() {
		t.Fatal("expected end time on a settled job")
	}
}

func TestSubmitEmitsLifecycleEvents(t *testing.T) {
	fx := newFixture(t, &fakeBridge{healthy: true, result: analysisResult()})

	if _, err := fx.uc.Submit(context.Background(), docInfo(), strings.NewReader("%PDF")); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	statuses := fx.events.statuses()
	want := []domain.JobStatus{domain.JobUploading, domain.JobProcessing, domain.JobCompleted}
	if len(statuses) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), statuses)
	}
	for i, status := range want {
		if statuses[i] != status {
			t.Fatalf("event %d: expected %s, got %s", i, status, statuses[i])
		}
	}
}

func TestSubmitRetriesTransientFailures(t *testing.T) {
	bridge := &fakeBridge{
		healthy: true,
		failures: []error{
			domain.NewProcessingError(domain.CodeNetwork, "connection reset", ""),
			domain.NewProcessingError(domain.CodeNetwork, "connection reset", ""),
		},
		result: analysisResult(),
	}
	fx := newFixture(t, bridge)

	receipt, err := fx.uc.Submit(context.Background(), docInfo(), strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if bridge.attemptCount() != 3 {
		t.Fatalf("expected 3 attempts, got %d", bridge.attemptCount())
	}

	job, _ := fx.uc.GetJob(receipt.JobID)
	if job.Status != domain.JobCompleted {
		t.Fatalf("expected completed after retries, got %s", job.Status)
	}
	if job.RetryCount != 2 {
		t.Fatalf("expected retry count 2, got %d", job.RetryCount)
	}
	if len(job.Warnings) != 2 {
		t.Fatalf("expected exactly 2 retry warnings, got %v", job.Warnings)
	}
	for _, warning := range job.Warnings {
		if !strings.Contains(warning, "retrying in") {
			t.Fatalf("warning missing backoff info: %q", warning)
		}
	}
}

func TestSubmitRetryBudgetExhausted(t *testing.T) {
	transient := domain.NewProcessingError(domain.CodeTimeout, "deadline exceeded", "")
	bridge := &fakeBridge{
		healthy:  true,
		failures: []error{transient, transient, transient},
		result:   analysisResult(),
	}
	fx := newFixture(t, bridge)

	_, err := fx.uc.Submit(context.Background(), docInfo(), strings.NewReader("%PDF"))
	if err == nil {
		t.Fatal("expected error after retry budget exhaustion")
	}
	if code := domain.AsProcessingError(err).Code; code != domain.CodeTimeout {
		t.Fatalf("expected %s, got %s", domain.CodeTimeout, code)
	}
	if bridge.attemptCount() != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", bridge.attemptCount())
	}

	jobs := fx.uc.ListJobs()
	if len(jobs) != 1 || jobs[0].Status != domain.JobError {
		t.Fatalf("expected one errored job, got %+v", jobs)
	}

	doc, err := fx.store.GetDocumentByID(jobs[0].DocumentID)
	if err != nil {
		t.Fatalf("GetDocumentByID() error = %v", err)
	}
	if doc.Status != domain.DocumentError || doc.ErrorCode != domain.CodeTimeout {
		t.Fatalf("expected errored document with code, got %s/%s", doc.Status, doc.ErrorCode)
	}
}

func TestSubmitFatalErrorFailsImmediately(t *testing.T) {
	bridge := &fakeBridge{
		healthy: true,
		failures: []error{
			domain.NewProcessingError(domain.CodeUnsupportedType, "only pdf accepted", ""),
		},
		result: analysisResult(),
	}
	fx := newFixture(t, bridge)

	_, err := fx.uc.Submit(context.Background(), docInfo(), strings.NewReader("%PDF"))
	if code := domain.AsProcessingError(err).Code; code != domain.CodeUnsupportedType {
		t.Fatalf("expected %s, got %s", domain.CodeUnsupportedType, code)
	}
	if bridge.attemptCount() != 1 {
		t.Fatalf("expected a single attempt for a fatal error, got %d", bridge.attemptCount())
	}

	jobs := fx.uc.ListJobs()
	if len(jobs) != 1 || jobs[0].RetryCount != 0 {
		t.Fatalf("expected no retries recorded, got %+v", jobs)
	}
}

func TestSubmitRejectsInvalidDocumentBeforeStaging(t *testing.T) {
	fx := newFixture(t, &fakeBridge{healthy: true, result: analysisResult()})

	info := docInfo()
	info.Name = "notes.txt"
	_, err := fx.uc.Submit(context.Background(), info, strings.NewReader("text"))
	if code := domain.AsProcessingError(err).Code; code != domain.CodeUnsupportedType {
		t.Fatalf("expected %s, got %s", domain.CodeUnsupportedType, code)
	}
	if len(fx.uc.ListJobs()) != 0 {
		t.Fatal("expected no job for a rejected submission")
	}
	if len(fx.store.AllDocuments()) != 0 {
		t.Fatal("expected no placeholder for a rejected submission")
	}
}

func TestSubmitFailsFastWhenServiceUnhealthy(t *testing.T) {
	fx := newFixture(t, &fakeBridge{healthy: false})

	_, err := fx.uc.Submit(context.Background(), docInfo(), strings.NewReader("%PDF"))
	if code := domain.AsProcessingError(err).Code; code != domain.CodePythonNotAvailable {
		t.Fatalf("expected %s, got %s", domain.CodePythonNotAvailable, code)
	}
}

func TestSubmitFailsFastOnLowDiskHeadroom(t *testing.T) {
	fx := newFixture(t, &fakeBridge{healthy: true, result: analysisResult()})
	fx.staging.free = 1024

	_, err := fx.uc.Submit(context.Background(), docInfo(), strings.NewReader("%PDF"))
	if code := domain.AsProcessingError(err).Code; code != domain.CodeDiskSpace {
		t.Fatalf("expected %s, got %s", domain.CodeDiskSpace, code)
	}
}

func TestSubmitPlaceholderVisibleDuringProcessing(t *testing.T) {
	store := newFakeStore()
	bridge := &fakeBridge{healthy: true, result: analysisResult()}
	bridge.onSubmit = func() {
		docs := store.AllDocuments()
		if len(docs) != 1 {
			t.Errorf("expected placeholder visible mid-flight, got %d docs", len(docs))
			return
		}
		if docs[0].Status != domain.DocumentProcessing {
			t.Errorf("expected processing placeholder, got %s", docs[0].Status)
		}
	}
	fx := newFixtureWithStore(t, bridge, store)

	if _, err := fx.uc.Submit(context.Background(), docInfo(), strings.NewReader("%PDF")); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
}

func newFixtureWithStore(t *testing.T, bridge *fakeBridge, store *fakeStore) *fixture {
	t.Helper()
	staging := newFakeStaging()
	events := &fakeEvents{}
	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: 3,
		RetryBackoffStep: time.Millisecond,
		BreakerEnabled:   false,
	})
	uc := NewSubmitDocumentUseCase(
		store, bridge, staging, fakePDF{pages: 12}, events, executor, classifyForTest,
		SubmitterConfig{CleanupDelay: time.Minute, JobRetention: time.Minute},
	)
	return &fixture{store: store, bridge: bridge, staging: staging, events: events, uc: uc}
}

func TestCancelJobMidFlight(t *testing.T) {
	bridge := &fakeBridge{healthy: true, result: analysisResult(), block: make(chan struct{})}
	fx := newFixture(t, bridge)

	done := make(chan error, 1)
	go func() {
		_, err := fx.uc.Submit(context.Background(), docInfo(), strings.NewReader("%PDF"))
		done <- err
	}()

	jobID := waitForJob(t, fx.uc)
	waitForJobStatus(t, fx.uc, jobID, domain.JobProcessing)
	if err := fx.uc.CancelJob(jobID); err != nil {
		t.Fatalf("CancelJob() error = %v", err)
	}

	err := <-done
	if err == nil {
		t.Fatal("expected the blocked submission to fail after cancellation")
	}

	job, _ := fx.uc.GetJob(jobID)
	if job.Status != domain.JobCancelled {
		t.Fatalf("expected cancelled to stick, got %s", job.Status)
	}
	if job.Progress != 40 {
		t.Fatalf("expected progress frozen at 40 after cancellation, got %d", job.Progress)
	}

	doc, err := fx.store.GetDocumentByID(job.DocumentID)
	if err != nil {
		t.Fatalf("GetDocumentByID() error = %v", err)
	}
	if doc.Status != domain.DocumentCancelled {
		t.Fatalf("expected cancelled document, got %s", doc.Status)
	}
}

func TestTransitionLeavesSettledJobsUntouched(t *testing.T) {
	fx := newFixture(t, &fakeBridge{healthy: true})

	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	fx.uc.registry.add(domain.Job{
		ID:       "job-settled",
		Status:   domain.JobCancelled,
		Progress: 40,
	}, cancel)

	fx.uc.transition(context.Background(), "job-settled", domain.JobCompleted, 100)

	job, ok := fx.uc.GetJob("job-settled")
	if !ok {
		t.Fatal("expected the job to remain in the registry")
	}
	if job.Status != domain.JobCancelled {
		t.Fatalf("expected status cancelled, got %s", job.Status)
	}
	if job.Progress != 40 {
		t.Fatalf("expected progress 40, got %d", job.Progress)
	}
}

func TestCancelJobUnknown(t *testing.T) {
	fx := newFixture(t, &fakeBridge{healthy: true})

	err := fx.uc.CancelJob("nope")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancelJobAlreadySettled(t *testing.T) {
	fx := newFixture(t, &fakeBridge{healthy: true, result: analysisResult()})

	receipt, err := fx.uc.Submit(context.Background(), docInfo(), strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	err = fx.uc.CancelJob(receipt.JobID)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for settled job, got %v", err)
	}
}

func TestWatchJobStreamClosesOnTerminal(t *testing.T) {
	bridge := &fakeBridge{healthy: true, result: analysisResult(), block: make(chan struct{})}
	fx := newFixture(t, bridge)

	done := make(chan error, 1)
	go func() {
		_, err := fx.uc.Submit(context.Background(), docInfo(), strings.NewReader("%PDF"))
		done <- err
	}()

	jobID := waitForJob(t, fx.uc)
	stream, ok := fx.uc.WatchJob(jobID)
	if !ok {
		t.Fatal("expected watch to attach")
	}

	close(bridge.block)
	if err := <-done; err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	var last domain.JobEvent
	for event := range stream {
		last = event
	}
	if last.Status != domain.JobCompleted {
		t.Fatalf("expected final event completed, got %s", last.Status)
	}
}

func TestWatchJobUnknown(t *testing.T) {
	fx := newFixture(t, &fakeBridge{healthy: true})
	if _, ok := fx.uc.WatchJob("nope"); ok {
		t.Fatal("expected no stream for unknown job")
	}
}

func waitForJob(t *testing.T, uc *SubmitDocumentUseCase) string {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the job to register")
		default:
		}
		if jobs := uc.ListJobs(); len(jobs) == 1 {
			return jobs[0].ID
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitForJobStatus(t *testing.T, uc *SubmitDocumentUseCase, jobID string, status domain.JobStatus) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for job %s to reach %s", jobID, status)
		default:
		}
		if job, ok := uc.GetJob(jobID); ok && job.Status == status {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

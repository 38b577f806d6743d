package domain

import "testing"

func TestJobTransitions(t *testing.T) {
	allowed := []struct {
		from, to JobStatus
	}{
		{JobIdle, JobUploading},
		{JobIdle, JobError},
		{JobIdle, JobCancelled},
		{JobUploading, JobProcessing},
		{JobUploading, JobCancelled},
		{JobProcessing, JobCompleted},
		{JobProcessing, JobError},
		{JobProcessing, JobCancelled},
	}
	for _, tt := range allowed {
		if !tt.from.CanTransition(tt.to) {
			t.Errorf("expected %s -> %s to be allowed", tt.from, tt.to)
		}
	}

	forbidden := []struct {
		from, to JobStatus
	}{
		{JobIdle, JobCompleted},
		{JobIdle, JobProcessing},
		{JobUploading, JobCompleted},
		{JobCompleted, JobError},
		{JobCancelled, JobError},
		{JobError, JobCompleted},
		{JobCancelled, JobCancelled},
	}
	for _, tt := range forbidden {
		if tt.from.CanTransition(tt.to) {
			t.Errorf("expected %s -> %s to be forbidden", tt.from, tt.to)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for _, status := range []JobStatus{JobCompleted, JobError, JobCancelled} {
		if !status.Terminal() {
			t.Errorf("expected %s to be terminal", status)
		}
	}
	for _, status := range []JobStatus{JobIdle, JobUploading, JobProcessing} {
		if status.Terminal() {
			t.Errorf("expected %s to be non-terminal", status)
		}
	}
}

func TestClampProgress(t *testing.T) {
	if got := ClampProgress(-5); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := ClampProgress(150); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := ClampProgress(40); got != 40 {
		t.Fatalf("expected 40, got %d", got)
	}
}

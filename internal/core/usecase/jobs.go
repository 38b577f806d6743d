package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/verityscan/verityscan/internal/core/domain"
)

// jobState is one live job plus its observers. Observers get a buffered
// event channel instead of nested callbacks; a slow observer loses events
// rather than stalling the job.
type jobState struct {
	job         domain.Job
	cancel      context.CancelFunc
	subscribers []chan domain.JobEvent
}

type jobRegistry struct {
	mu   sync.Mutex
	jobs map[string]*jobState

	retention time.Duration
}

func newJobRegistry(retention time.Duration) *jobRegistry {
	return &jobRegistry{
		jobs:      make(map[string]*jobState),
		retention: retention,
	}
}

func (r *jobRegistry) add(job domain.Job, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = &jobState{job: job, cancel: cancel}
}

func (r *jobRegistry) get(jobID string) (domain.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.jobs[jobID]
	if !ok {
		return domain.Job{}, false
	}
	return cloneJob(state.job), true
}

func (r *jobRegistry) list() []domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs := make([]domain.Job, 0, len(r.jobs))
	for _, state := range r.jobs {
		jobs = append(jobs, cloneJob(state.job))
	}
	return jobs
}

// watch attaches a buffered observer channel to a job. The channel closes
// when the job reaches a terminal state.
func (r *jobRegistry) watch(jobID string) (<-chan domain.JobEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.jobs[jobID]
	if !ok {
		return nil, false
	}
	ch := make(chan domain.JobEvent, 16)
	if state.job.Status.Terminal() {
		close(ch)
		return ch, true
	}
	state.subscribers = append(state.subscribers, ch)
	return ch, true
}

// update applies fn to the job under the registry lock and emits the
// resulting event to every observer. Returns the updated snapshot.
func (r *jobRegistry) update(jobID string, fn func(*domain.Job)) (domain.Job, domain.JobEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.jobs[jobID]
	if !ok {
		return domain.Job{}, domain.JobEvent{}, false
	}

	fn(&state.job)
	state.job.Progress = domain.ClampProgress(state.job.Progress)

	event := domain.JobEvent{
		JobID:      state.job.ID,
		DocumentID: state.job.DocumentID,
		Status:     state.job.Status,
		Progress:   state.job.Progress,
		Timestamp:  time.Now().UTC(),
	}
	if n := len(state.job.Warnings); n > 0 {
		event.Warning = state.job.Warnings[n-1]
	}
	if n := len(state.job.Errors); n > 0 {
		event.Error = state.job.Errors[n-1]
	}

	for _, ch := range state.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	if state.job.Status.Terminal() {
		for _, ch := range state.subscribers {
			close(ch)
		}
		state.subscribers = nil
		r.scheduleRemoval(jobID)
	}

	return cloneJob(state.job), event, true
}

func (r *jobRegistry) cancelFunc(jobID string) (context.CancelFunc, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.jobs[jobID]
	if !ok || state.cancel == nil {
		return nil, false
	}
	return state.cancel, true
}

// scheduleRemoval drops a finished job from the active set after the
// retention delay. Best effort; the map entry simply lingers if the timer
// never fires before shutdown. Caller holds the lock.
func (r *jobRegistry) scheduleRemoval(jobID string) {
	time.AfterFunc(r.retention, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.jobs, jobID)
	})
}

func cloneJob(job domain.Job) domain.Job {
	out := job
	out.Errors = append([]string(nil), job.Errors...)
	out.Warnings = append([]string(nil), job.Warnings...)
	return out
}

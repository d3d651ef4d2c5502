// Package jobrunner tracks asynchronous analysis runs and drives each one
// through an Orchestrator in the background. It is the in-process
// collaborator behind what a future HTTP job API would expose; no network
// surface lives here.
package jobrunner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/seoscope/models"
	"github.com/use-agent/seoscope/webhook"
)

// jobExpiry bounds how long a completed or failed job's record is kept
// before GC sweeps it, the same window the teacher's batch store used.
const jobExpiry = 1 * time.Hour

// Runner is the interface an HTTP surface or CLI would drive jobs through.
// Submit starts a project run in the background and returns immediately.
type Runner interface {
	Submit(ctx context.Context, projectName, query, targetURL string, topN int) (*models.Job, error)
	Status(jobID string) (*models.Job, bool)
	Results(jobID string) (*models.Project, error)
}

// orchestratorRunner is the Orchestrator method signature Runner needs,
// scoped down so jobrunner doesn't depend on the orchestrator package's
// full construction surface.
type orchestratorRunner interface {
	Run(ctx context.Context, projectName, query, targetURL string, topN int, onProgress func(stage string)) (*models.Project, error)
}

// InMemoryRunner is the one concrete Runner: an in-process job table backed
// by a single Orchestrator, with a background sweep that expires old
// terminal records.
type InMemoryRunner struct {
	orch   orchestratorRunner
	jobs   sync.Map // jobID -> *models.Job
	result sync.Map // jobID -> *models.Project

	webhookURL    string
	webhookSecret string

	stop chan struct{}
}

// New starts an InMemoryRunner backed by orch. Call Close to stop its
// background expiry sweep.
func New(orch orchestratorRunner) *InMemoryRunner {
	r := &InMemoryRunner{orch: orch, stop: make(chan struct{})}
	go r.expireLoop()
	return r
}

// SetWebhook configures a job.completed/job.failed notification endpoint.
// An empty url disables delivery.
func (r *InMemoryRunner) SetWebhook(url, secret string) {
	r.webhookURL = url
	r.webhookSecret = secret
}

// Close stops the background expiry sweep. It does not cancel in-flight runs.
func (r *InMemoryRunner) Close() {
	close(r.stop)
}

// Submit creates a pending Job record and launches the run in a goroutine.
func (r *InMemoryRunner) Submit(ctx context.Context, projectName, query, targetURL string, topN int) (*models.Job, error) {
	now := time.Now()
	job := &models.Job{
		ID:          uuid.NewString(),
		ProjectName: projectName,
		TargetURL:   targetURL,
		Keyword:     query,
		State:       models.JobPending,
		TotalSteps:  len(models.StageOrder),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.jobs.Store(job.ID, job)

	go r.run(job, projectName, query, targetURL, topN)

	return job, nil
}

func (r *InMemoryRunner) run(job *models.Job, projectName, query, targetURL string, topN int) {
	r.transition(job, models.JobProcessing, "")

	onProgress := func(stage string) {
		job.CompletedSteps++
		job.UpdatedAt = time.Now()
		r.jobs.Store(job.ID, job)
	}

	project, err := r.orch.Run(context.Background(), projectName, query, targetURL, topN, onProgress)
	if project != nil {
		r.result.Store(job.ID, project)
	}
	if err != nil {
		r.transition(job, models.JobFailed, err.Error())
		slog.Error("jobrunner: run failed", "job_id", job.ID, "project", projectName, "error", err)
		r.notify("job.failed", job)
		return
	}
	r.transition(job, models.JobCompleted, "")
	r.notify("job.completed", job)
}

func (r *InMemoryRunner) notify(eventType string, job *models.Job) {
	if r.webhookURL == "" {
		return
	}
	webhook.DeliverAsync(r.webhookURL, r.webhookSecret, &webhook.Event{
		Type:      eventType,
		JobID:     job.ID,
		Timestamp: job.UpdatedAt.Unix(),
		Data:      job,
	})
}

func (r *InMemoryRunner) transition(job *models.Job, state models.JobState, errMsg string) {
	job.State = state
	job.ErrorMessage = errMsg
	job.UpdatedAt = time.Now()
	r.jobs.Store(job.ID, job)
}

// Status returns a snapshot of a job's current record, with
// ProgressPercent computed fresh from its completed-steps count.
func (r *InMemoryRunner) Status(jobID string) (*models.Job, bool) {
	v, ok := r.jobs.Load(jobID)
	if !ok {
		return nil, false
	}
	snapshot := *v.(*models.Job)
	snapshot.ProgressPercent = snapshot.Progress()
	return &snapshot, true
}

// Results returns the completed project record, or an error if the job is
// unknown or hasn't reached a terminal state yet.
func (r *InMemoryRunner) Results(jobID string) (*models.Project, error) {
	job, ok := r.Status(jobID)
	if !ok {
		return nil, fmt.Errorf("jobrunner: unknown job %q", jobID)
	}
	if job.State != models.JobCompleted && job.State != models.JobFailed {
		return nil, fmt.Errorf("jobrunner: job %q has not finished (state=%s)", jobID, job.State)
	}
	v, ok := r.result.Load(jobID)
	if !ok {
		return nil, fmt.Errorf("jobrunner: no result recorded for job %q", jobID)
	}
	return v.(*models.Project), nil
}

func (r *InMemoryRunner) expireLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-jobExpiry)
			r.jobs.Range(func(key, value any) bool {
				job := value.(*models.Job)
				if (job.State == models.JobCompleted || job.State == models.JobFailed) && job.UpdatedAt.Before(cutoff) {
					r.jobs.Delete(key)
					r.result.Delete(key)
				}
				return true
			})
		}
	}
}

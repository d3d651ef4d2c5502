package jobrunner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/use-agent/seoscope/models"
)

type fakeOrchestrator struct {
	project    *models.Project
	err        error
	delay      time.Duration
	stageDelay time.Duration
}

func (f *fakeOrchestrator) Run(ctx context.Context, projectName, query, targetURL string, topN int, onProgress func(stage string)) (*models.Project, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err == nil && onProgress != nil {
		for _, stage := range models.StageOrder {
			if f.stageDelay > 0 {
				time.Sleep(f.stageDelay)
			}
			onProgress(stage)
		}
	}
	return f.project, f.err
}

func waitForTerminal(t *testing.T, r *InMemoryRunner, jobID string) *models.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := r.Status(jobID)
		if !ok {
			t.Fatalf("job %q not found", jobID)
		}
		if job.State == models.JobCompleted || job.State == models.JobFailed {
			return job
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("job %q never reached a terminal state", jobID)
	return nil
}

func TestSubmitAndCompleteSuccess(t *testing.T) {
	fake := &fakeOrchestrator{project: &models.Project{
		ProjectName:    "acme",
		StepsCompleted: models.StageOrder,
	}}
	r := New(fake)
	defer r.Close()

	job, err := r.Submit(context.Background(), "acme", "widgets", "https://acme.com", 5)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	final := waitForTerminal(t, r, job.ID)
	if final.State != models.JobCompleted {
		t.Fatalf("expected completed, got %s", final.State)
	}
	if final.Progress() != 100 {
		t.Errorf("expected 100%% progress, got %d", final.Progress())
	}

	project, err := r.Results(job.ID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if project.ProjectName != "acme" {
		t.Errorf("unexpected project name: %s", project.ProjectName)
	}
}

func TestSubmitAndFail(t *testing.T) {
	fake := &fakeOrchestrator{err: errors.New("serp search failed")}
	r := New(fake)
	defer r.Close()

	job, err := r.Submit(context.Background(), "acme", "widgets", "https://acme.com", 5)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	final := waitForTerminal(t, r, job.ID)
	if final.State != models.JobFailed {
		t.Fatalf("expected failed, got %s", final.State)
	}
	if final.ErrorMessage == "" {
		t.Error("expected ErrorMessage to be set")
	}

	if _, err := r.Results(job.ID); err == nil {
		t.Error("expected Results to error for a failed job without a project")
	}
}

func TestResultsBeforeCompletionErrors(t *testing.T) {
	fake := &fakeOrchestrator{project: &models.Project{ProjectName: "acme"}, delay: 200 * time.Millisecond}
	r := New(fake)
	defer r.Close()

	job, err := r.Submit(context.Background(), "acme", "widgets", "https://acme.com", 5)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := r.Results(job.ID); err == nil {
		t.Error("expected Results to error while the job is still running")
	}

	waitForTerminal(t, r, job.ID)
}

func TestStatusTracksProgressIncrementally(t *testing.T) {
	fake := &fakeOrchestrator{
		project:    &models.Project{ProjectName: "acme", StepsCompleted: models.StageOrder},
		stageDelay: 40 * time.Millisecond,
	}
	r := New(fake)
	defer r.Close()

	job, err := r.Submit(context.Background(), "acme", "widgets", "https://acme.com", 5)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	time.Sleep(80 * time.Millisecond)
	mid, ok := r.Status(job.ID)
	if !ok {
		t.Fatalf("job %q not found", job.ID)
	}
	if mid.Progress() <= 0 || mid.Progress() >= 100 {
		t.Errorf("expected partial progress mid-run, got %d%%", mid.Progress())
	}

	final := waitForTerminal(t, r, job.ID)
	if final.Progress() != 100 {
		t.Errorf("expected 100%% progress at completion, got %d", final.Progress())
	}
	if final.ProgressPercent != 100 {
		t.Errorf("expected ProgressPercent to be populated at completion, got %d", final.ProgressPercent)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	r := New(&fakeOrchestrator{})
	defer r.Close()

	if _, ok := r.Status("does-not-exist"); ok {
		t.Error("expected Status to report not found for an unknown job ID")
	}
}

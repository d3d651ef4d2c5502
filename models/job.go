package models

import "time"

// JobState is the lifecycle state of an asynchronous analysis job.
// Transitions are strictly monotonic (pending -> processing -> completed|failed)
// except for admin deletion.
type JobState string

const (
	JobPending    JobState = "pending"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// Job is the record behind the JobRunner interface's submit/status/results
// contract. It is an in-process bookkeeping record, not a persisted entity —
// the thin HTTP job API that would expose it over the network is out of
// scope.
type Job struct {
	ID               string    `json:"id"`
	ProjectName      string    `json:"project_name"`
	TargetURL        string    `json:"target_url"`
	Keyword          string    `json:"keyword"`
	State            JobState  `json:"status"`
	ProgressPercent  int       `json:"progress_percent"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	TotalSteps       int       `json:"-"`
	CompletedSteps   int       `json:"-"`
}

// Progress computes floor(100 * completed_steps / total_steps).
func (j *Job) Progress() int {
	if j.TotalSteps <= 0 {
		return 0
	}
	return (100 * j.CompletedSteps) / j.TotalSteps
}

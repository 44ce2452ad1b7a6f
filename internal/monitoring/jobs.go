package monitoring

import "time"

// JobStatus summarises the run history of a background job.
type JobStatus struct {
	Job                 string    `json:"job"`
	TotalRuns           uint64    `json:"total_runs"`
	ConsecutiveFailures uint64    `json:"consecutive_failures"`
	LastRunAt           time.Time `json:"last_run_at"`
	LastError           string    `json:"last_error,omitempty"`
}

// JobSource reports the status of registered background jobs.
type JobSource interface {
	Jobs() []JobStatus
}

package domain

import "time"

// JobState enumerates the lifecycle of one generation attempt.
type JobState string

const (
	JobSubmitted JobState = "submitted"
	JobPolling   JobState = "polling"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobTimedOut  JobState = "timed_out"
)

// Terminal reports whether no further transition can occur from s.
func (s JobState) Terminal() bool {
	switch s {
	case JobSucceeded, JobFailed, JobTimedOut:
		return true
	}
	return false
}

// JobResult holds the remote references produced by a successful generation.
type JobResult struct {
	VideoURL     string
	LastFrameURL string
}

// Job tracks one submitted generation request through to a terminal state.
// A Job is owned by the poller that created it and must not be mutated after
// the orchestrator has consumed its terminal state.
type Job struct {
	RemoteID       string
	Request        GenerationRequest
	State          JobState
	Attempts       int
	SubmittedAt    time.Time
	LastPollAt     time.Time
	Result         *JobResult
	FailureMessage string
}

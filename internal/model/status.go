package model

import "fmt"

const (
	JobIdle      = "idle"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

var allowedTransitions = map[string]map[string]bool{
	JobIdle: {
		JobRunning: true,
		JobFailed:  true, // rejected configuration never enters running
	},
	JobRunning: {
		JobSucceeded: true,
		JobFailed:    true,
	},
	JobSucceeded: {},
	JobFailed:    {},
}

func IsKnownState(state string) bool {
	_, ok := allowedTransitions[state]
	return ok
}

func IsTerminal(state string) bool {
	return state == JobSucceeded || state == JobFailed
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// JobState tracks where a pipeline run is in its lifecycle.
type JobState struct {
	RunID  string `json:"run_id"`
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

func NewJobState(runID string) JobState {
	return JobState{RunID: runID, State: JobIdle}
}

func TransitionJob(job *JobState, to string, reason string) error {
	from := job.State
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid job state transition: %q -> %q (run_id=%s)", from, to, job.RunID)
	}
	job.State = to
	job.Reason = reason
	return nil
}

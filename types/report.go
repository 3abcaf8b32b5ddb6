package types

import "github.com/masonry-io/mason/metrics"

// AttemptStatus is the pass/fail status of one validation attempt.
type AttemptStatus string

const (
	// AttemptPass indicates the attempt was accepted.
	AttemptPass AttemptStatus = "PASS"
	// AttemptFail indicates the attempt was rejected.
	AttemptFail AttemptStatus = "FAIL"
)

// AttemptErrorType classifies why an attempt was rejected.
type AttemptErrorType string

const (
	// AttemptErrNone means the attempt passed.
	AttemptErrNone AttemptErrorType = "None"
	// AttemptErrTest means one or more tests did not pass.
	AttemptErrTest AttemptErrorType = "Test Failure"
	// AttemptErrCoverage means tests passed but coverage was insufficient.
	AttemptErrCoverage AttemptErrorType = "Coverage Failure"
)

// AttemptRecord captures the measured outcome of one validation attempt.
// Records are append-only and owned by a single governor run; they are
// never mutated retroactively.
type AttemptRecord struct {
	Attempt     int              `json:"attempt"`
	Coverage    float64          `json:"coverage"`
	PassRate    float64          `json:"pass_rate"`
	TestsPassed int              `json:"tests_passed"`
	TestsTotal  int              `json:"tests_total"`
	Status      AttemptStatus    `json:"status"`
	ErrorType   AttemptErrorType `json:"error_type"`
}

// RunStatus is the terminal status of a full run.
type RunStatus string

const (
	// RunVerified means the candidate was accepted and persisted.
	RunVerified RunStatus = "verified"
	// RunRejected means the run ended without an accepted candidate.
	RunRejected RunStatus = "rejected"
)

// StopReason records why the governor terminated a run.
type StopReason string

const (
	// StopAccepted: the candidate verified.
	StopAccepted StopReason = "accepted"
	// StopExhausted: the attempt limit was reached.
	StopExhausted StopReason = "exhausted"
	// StopStagnated: consecutive attempts improved neither coverage nor pass rate.
	StopStagnated StopReason = "stagnated"
	// StopBudgetExceeded: a resource budget (calls, wall clock, file changes) was breached.
	StopBudgetExceeded StopReason = "budget_exceeded"
	// StopGeneratorFailed: the generator failed or produced unusable output.
	StopGeneratorFailed StopReason = "generator_failed"
	// StopInternalError: an unexpected fault ended the run.
	StopInternalError StopReason = "internal_error"
)

// RunReport is the final structured report of one governor run.
// It always exists at run termination, verified or rejected.
type RunReport struct {
	FunctionName     string            `json:"function_name"`
	Status           RunStatus         `json:"status"`
	Attempts         int               `json:"attempts"`
	Coverage         float64           `json:"coverage"`
	TotalTimeSeconds float64           `json:"total_time_sec"`
	FailureLog       string            `json:"failure_log,omitempty"`
	StopReason       StopReason        `json:"stop_reason"`
	AttemptHistory   []AttemptRecord   `json:"attempt_history"`
	Metrics          *metrics.Snapshot `json:"metrics,omitempty"`
}

package types

// TestStatus is the status of a single test case.
type TestStatus string

const (
	// TestPassed indicates the test passed.
	TestPassed TestStatus = "PASSED"
	// TestFailed indicates the test ran and failed an assertion.
	TestFailed TestStatus = "FAILED"
	// TestErrored indicates the test raised outside an assertion.
	TestErrored TestStatus = "ERROR"
)

// TestOutcome is the parsed result of one test case. Immutable once produced.
type TestOutcome struct {
	// Name is the test identifier as printed by the runner.
	Name string `json:"name"`
	// Status is the parsed status.
	Status TestStatus `json:"status"`
	// ErrorMessage is the first error-detail line following a failing
	// record, if any. Passing records never carry one.
	ErrorMessage string `json:"error_message,omitempty"`
}

// RunSummary aggregates the test outcomes of one sandbox run.
type RunSummary struct {
	TotalTests  int `json:"total_tests"`
	PassedTests int `json:"passed_tests"`
	FailedTests int `json:"failed_tests"`
	// PassRate is PassedTests/TotalTests in [0,1]; 0 when TotalTests is 0.
	PassRate float64       `json:"pass_rate"`
	Outcomes []TestOutcome `json:"outcomes"`
}

// NewRunSummary derives the aggregate counts from outcomes.
// A zero-length outcome list yields PassRate 0, never a division fault.
func NewRunSummary(outcomes []TestOutcome) RunSummary {
	s := RunSummary{
		TotalTests: len(outcomes),
		Outcomes:   outcomes,
	}
	for _, o := range outcomes {
		if o.Status == TestPassed {
			s.PassedTests++
		}
	}
	s.FailedTests = s.TotalTests - s.PassedTests
	if s.TotalTests > 0 {
		s.PassRate = float64(s.PassedTests) / float64(s.TotalTests)
	}
	return s
}

// AllPassed reports whether every discovered test passed.
// False for an empty suite: zero tests never verify a candidate.
func (s *RunSummary) AllPassed() bool {
	return s.TotalTests > 0 && s.PassedTests == s.TotalTests
}

// CoverageReport is the parsed statement-coverage measurement of one run.
type CoverageReport struct {
	// PercentCovered is statement coverage in [0,100].
	PercentCovered float64 `json:"percent_covered"`
	// MissingLines lists uncovered line numbers in the candidate module.
	MissingLines []int `json:"missing_lines,omitempty"`
	// Missing is true when no coverage report was produced at all.
	// Distinguishes instrumentation failure from a genuine 0% measurement.
	Missing bool `json:"missing,omitempty"`
}

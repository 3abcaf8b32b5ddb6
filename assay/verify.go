package assay

import (
	"fmt"

	"github.com/masonry-io/mason/sandbox"
	"github.com/masonry-io/mason/types"
)

// DefaultMinCoverage is the statement-coverage threshold a candidate must
// meet. 100 means every line of the candidate module must be exercised.
const DefaultMinCoverage = 100.0

// Verdict is the outcome of verifying one sandbox run.
type Verdict struct {
	// Accepted reports whether the candidate met every gate.
	Accepted bool
	// Reason classifies the rejection. AttemptErrNone when accepted.
	Reason types.AttemptErrorType
	// Detail is the failure text fed back to the generator on repair.
	Detail string
}

// Verifier applies the acceptance gates to a sandbox run.
type Verifier struct {
	// MinCoverage is the statement-coverage threshold in [0,100].
	// Zero means DefaultMinCoverage.
	MinCoverage float64
}

// Verify renders the verdict for one run.
//
// Gates are checked in order: process exit, coverage report presence,
// coverage threshold. The first failed gate decides the verdict; its detail
// text carries the raw evidence so repair prompts can quote it.
func (v Verifier) Verify(result *sandbox.Result, summary types.RunSummary, coverage types.CoverageReport) Verdict {
	minCoverage := v.MinCoverage
	if minCoverage <= 0 {
		minCoverage = DefaultMinCoverage
	}

	if result.TimedOut {
		return Verdict{
			Reason: types.AttemptErrTest,
			Detail: fmt.Sprintf("TESTS FAILED: sandbox timed out after %s\n%s", result.Duration.Round(0), result.Output),
		}
	}
	if result.ExitCode != 0 {
		return Verdict{
			Reason: types.AttemptErrTest,
			Detail: "TESTS FAILED:\n" + result.Output,
		}
	}
	if coverage.Missing {
		return Verdict{
			Reason: types.AttemptErrCoverage,
			Detail: "CRITICAL: Coverage report not generated.",
		}
	}
	if !summary.AllPassed() {
		// pytest exited 0 without a passing suite (e.g. zero tests
		// collected slipped through). Zero tests never verify.
		return Verdict{
			Reason: types.AttemptErrTest,
			Detail: fmt.Sprintf("TESTS FAILED: %d of %d tests passed\n%s", summary.PassedTests, summary.TotalTests, result.Output),
		}
	}
	if coverage.PercentCovered < minCoverage {
		return Verdict{
			Reason: types.AttemptErrCoverage,
			Detail: fmt.Sprintf("COVERAGE FAILURE: Only %g%% covered. Missing branches/lines.", coverage.PercentCovered),
		}
	}

	return Verdict{Accepted: true, Reason: types.AttemptErrNone, Detail: "All Checks Passed"}
}

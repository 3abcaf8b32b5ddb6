package assay

import (
	"strings"
	"testing"
	"time"

	"github.com/masonry-io/mason/sandbox"
	"github.com/masonry-io/mason/types"
)

func passingSummary() types.RunSummary {
	return types.NewRunSummary([]types.TestOutcome{
		{Name: "test_add.py::test_add", Status: types.TestPassed},
	})
}

func TestVerify_Accepts(t *testing.T) {
	v := Verifier{}
	verdict := v.Verify(
		&sandbox.Result{ExitCode: 0},
		passingSummary(),
		types.CoverageReport{PercentCovered: 100.0},
	)

	if !verdict.Accepted {
		t.Fatalf("Accepted = false: %s", verdict.Detail)
	}
	if verdict.Reason != types.AttemptErrNone {
		t.Errorf("Reason = %q, want None", verdict.Reason)
	}
}

func TestVerify_TestFailure(t *testing.T) {
	v := Verifier{}
	verdict := v.Verify(
		&sandbox.Result{ExitCode: 1, Output: "test_add.py::test_add FAILED"},
		types.NewRunSummary([]types.TestOutcome{
			{Name: "test_add.py::test_add", Status: types.TestFailed},
		}),
		types.CoverageReport{Missing: true},
	)

	if verdict.Accepted {
		t.Fatal("Accepted = true, want false")
	}
	if verdict.Reason != types.AttemptErrTest {
		t.Errorf("Reason = %q, want Test Failure", verdict.Reason)
	}
	if !strings.Contains(verdict.Detail, "TESTS FAILED") {
		t.Errorf("Detail = %q, missing failure banner", verdict.Detail)
	}
	if !strings.Contains(verdict.Detail, "test_add FAILED") {
		t.Errorf("Detail = %q, missing raw evidence", verdict.Detail)
	}
}

func TestVerify_MissingCoverageReport(t *testing.T) {
	v := Verifier{}
	verdict := v.Verify(
		&sandbox.Result{ExitCode: 0},
		passingSummary(),
		types.CoverageReport{Missing: true},
	)

	if verdict.Accepted {
		t.Fatal("Accepted = true, want false")
	}
	if verdict.Reason != types.AttemptErrCoverage {
		t.Errorf("Reason = %q, want Coverage Failure", verdict.Reason)
	}
}

func TestVerify_InsufficientCoverage(t *testing.T) {
	v := Verifier{}
	verdict := v.Verify(
		&sandbox.Result{ExitCode: 0},
		passingSummary(),
		types.CoverageReport{PercentCovered: 99.9},
	)

	if verdict.Accepted {
		t.Fatal("Accepted = true at 99.9% coverage")
	}
	if verdict.Reason != types.AttemptErrCoverage {
		t.Errorf("Reason = %q, want Coverage Failure", verdict.Reason)
	}
	if !strings.Contains(verdict.Detail, "99.9") {
		t.Errorf("Detail = %q, missing measured value", verdict.Detail)
	}
}

func TestVerify_CustomThreshold(t *testing.T) {
	v := Verifier{MinCoverage: 80}
	verdict := v.Verify(
		&sandbox.Result{ExitCode: 0},
		passingSummary(),
		types.CoverageReport{PercentCovered: 85},
	)

	if !verdict.Accepted {
		t.Fatalf("Accepted = false at 85%% with threshold 80: %s", verdict.Detail)
	}
}

func TestVerify_Timeout(t *testing.T) {
	v := Verifier{}
	verdict := v.Verify(
		&sandbox.Result{ExitCode: -1, TimedOut: true, Duration: 2 * time.Second},
		types.RunSummary{},
		types.CoverageReport{Missing: true},
	)

	if verdict.Accepted {
		t.Fatal("Accepted = true, want false")
	}
	if verdict.Reason != types.AttemptErrTest {
		t.Errorf("Reason = %q, want Test Failure", verdict.Reason)
	}
	if !strings.Contains(verdict.Detail, "timed out") {
		t.Errorf("Detail = %q, missing timeout note", verdict.Detail)
	}
}

func TestVerify_EmptySuiteNeverVerifies(t *testing.T) {
	v := Verifier{}
	verdict := v.Verify(
		&sandbox.Result{ExitCode: 0},
		types.NewRunSummary(nil),
		types.CoverageReport{PercentCovered: 100.0},
	)

	if verdict.Accepted {
		t.Fatal("Accepted = true for zero-test suite")
	}
	if verdict.Reason != types.AttemptErrTest {
		t.Errorf("Reason = %q, want Test Failure", verdict.Reason)
	}
}

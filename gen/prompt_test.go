package gen

import (
	"strings"
	"testing"

	"github.com/masonry-io/mason/types"
)

func TestGeneratePrompt(t *testing.T) {
	prompt := generatePrompt("reverses a string")

	if !strings.Contains(prompt, "reverses a string") {
		t.Errorf("prompt missing request: %q", prompt)
	}
	if !strings.Contains(prompt, "comprehensive tests") {
		t.Errorf("prompt missing test instruction: %q", prompt)
	}
}

func TestRepairPrompt_CarriesEvidence(t *testing.T) {
	req := RepairRequest{
		Request:    "adds two numbers",
		FailureLog: "TESTS FAILED:\ntest_add.py::test_add FAILED",
		Summary: types.NewRunSummary([]types.TestOutcome{
			{Name: "test_add.py::test_ok", Status: types.TestPassed},
			{Name: "test_add.py::test_add", Status: types.TestFailed, ErrorMessage: "assert 2 == 3"},
		}),
		Coverage: types.CoverageReport{PercentCovered: 75.0, MissingLines: []int{4, 5}},
		Code:     "def add(a, b):\n    return a + b + 1\n",
	}

	prompt := repairPrompt(req)

	for _, want := range []string{
		"Failure Reason:",
		"TESTS FAILED",
		"Pass Rate: 50.0%",
		"test_add: FAILED | Error: assert 2 == 3",
		"Current Coverage: 75.0%",
		"Missing lines: [4 5]",
		"return a + b + 1",
		"Output only the fixed JSON structure",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("repair prompt missing %q\n--- prompt ---\n%s", want, prompt)
		}
	}

	// Passing tests are not itemized, only failures.
	if strings.Contains(prompt, "test_ok: PASSED") {
		t.Error("repair prompt itemizes passing tests")
	}
}

func TestRepairPrompt_NoEvidence(t *testing.T) {
	prompt := repairPrompt(RepairRequest{
		FailureLog: "CRITICAL: Coverage report not generated.",
		Coverage:   types.CoverageReport{Missing: true},
	})

	if !strings.Contains(prompt, "No test results available") {
		t.Errorf("prompt missing empty-summary placeholder:\n%s", prompt)
	}
	if !strings.Contains(prompt, "No coverage analysis available") {
		t.Errorf("prompt missing empty-coverage placeholder:\n%s", prompt)
	}
}

func TestStub_ReplaysInOrder(t *testing.T) {
	stub := NewStub(
		StubResponse{Text: "first"},
		StubResponse{Text: "second"},
	)

	got, err := stub.Generate(t.Context(), "anything")
	if err != nil || got != "first" {
		t.Fatalf("Generate() = %q, %v", got, err)
	}
	got, err = stub.Repair(t.Context(), RepairRequest{})
	if err != nil || got != "second" {
		t.Fatalf("Repair() = %q, %v", got, err)
	}
	if _, err := stub.Generate(t.Context(), "x"); err == nil {
		t.Error("exhausted stub did not error")
	}
	if stub.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", stub.Calls())
	}
}

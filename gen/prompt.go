package gen

import (
	"fmt"
	"strings"

	"github.com/masonry-io/mason/types"
)

// systemPrompt constrains the backend to the JSON candidate contract.
const systemPrompt = `You are a strict code generator. You output JSON only.
Your goal is to write a Python function and a corresponding Pytest unit test.
CRITICAL: Your tests MUST cover 100% of the function code.

Output format must be exactly this JSON structure:
{
    "filename": "function_name",
    "code": "def function_name... ",
    "test": "import pytest\nfrom function_name import function_name\n\ndef test_case_1()..."
}`

// generatePrompt frames the initial request.
func generatePrompt(request string) string {
	return fmt.Sprintf("Write a Python function that: %s. Include comprehensive tests.", request)
}

// repairPrompt frames a retry with the previous attempt's failure evidence.
func repairPrompt(req RepairRequest) string {
	var b strings.Builder
	b.WriteString("Your previous attempt failed validation.\n")
	b.WriteString("Failure Reason:\n")
	b.WriteString(req.FailureLog)
	b.WriteString("\n\nTest Results Summary:\n")
	b.WriteString(summaryText(req.Summary))
	b.WriteString("\nCoverage Analysis:\n")
	b.WriteString(coverageText(req.Coverage))
	b.WriteString("\nHere is the code you wrote:\n")
	b.WriteString(req.Code)
	b.WriteString("\n\nFix the code and/or tests to solve the error and ensure 100% coverage.\n")
	b.WriteString("Do not output explanation. Output only the fixed JSON structure.\n")
	return b.String()
}

func summaryText(s types.RunSummary) string {
	if s.TotalTests == 0 {
		return "No test results available\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Total Tests: %d, Passed: %d, Failed: %d, Pass Rate: %.1f%%\n",
		s.TotalTests, s.PassedTests, s.FailedTests, s.PassRate*100)
	for _, o := range s.Outcomes {
		if o.Status == types.TestPassed {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s", o.Name, o.Status)
		if o.ErrorMessage != "" {
			fmt.Fprintf(&b, " | Error: %s", o.ErrorMessage)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func coverageText(c types.CoverageReport) string {
	if c.Missing {
		return "No coverage analysis available\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Current Coverage: %.1f%%\n", c.PercentCovered)
	if len(c.MissingLines) > 0 {
		fmt.Fprintf(&b, "Missing lines: %v\n", c.MissingLines)
	}
	return b.String()
}

// Package assay turns raw sandbox output into structured measurements and
// renders the accept/reject verdict.
//
// Parsing is deliberately line-oriented: pytest's verbose output format is a
// stable line grammar (result lines contain "::test_" and end in a status
// token; error detail lines start with "E       "). Anything that does not
// match is ignored, so incidental output from the candidate's own code never
// corrupts the summary.
package assay

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/masonry-io/mason/types"
)

// errorDetailPrefix marks pytest assertion-detail lines.
const errorDetailPrefix = "E       "

// ParseTests extracts per-test outcomes from combined pytest output.
// Unrecognized lines are skipped. An empty or unparseable output yields a
// zero-test summary, never an error.
func ParseTests(output string) types.RunSummary {
	var outcomes []types.TestOutcome
	current := -1

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)

		if strings.Contains(line, "::test_") {
			if status, ok := resultStatus(line); ok {
				name := strings.TrimSuffix(line, " "+string(status))
				outcomes = append(outcomes, types.TestOutcome{
					Name:   strings.TrimSpace(name),
					Status: status,
				})
				current = len(outcomes) - 1
				continue
			}
		}

		// The first detail line directly following a failing record is
		// its assertion message. Detail lines never attach to passing
		// records, so unrelated trace output cannot mislabel a pass.
		if strings.HasPrefix(line, errorDetailPrefix) && current >= 0 {
			o := &outcomes[current]
			if o.Status != types.TestPassed && o.ErrorMessage == "" {
				o.ErrorMessage = strings.TrimSpace(line[len(errorDetailPrefix):])
			}
		}
	}

	return types.NewRunSummary(outcomes)
}

// resultStatus matches the trailing status token of a pytest result line.
func resultStatus(line string) (types.TestStatus, bool) {
	switch {
	case strings.HasSuffix(line, " PASSED"):
		return types.TestPassed, true
	case strings.HasSuffix(line, " FAILED"):
		return types.TestFailed, true
	case strings.HasSuffix(line, " ERROR"):
		return types.TestErrored, true
	default:
		return "", false
	}
}

// coverageDocument mirrors the pytest-cov JSON report shape.
type coverageDocument struct {
	Totals struct {
		PercentCovered float64 `json:"percent_covered"`
	} `json:"totals"`
	Files map[string]struct {
		MissingLines []int `json:"missing_lines"`
	} `json:"files"`
}

// ParseCoverage extracts the coverage measurement for the named module from
// a raw pytest-cov JSON report. A nil or empty report yields
// CoverageReport{Missing: true}; a malformed one returns an error.
func ParseCoverage(data []byte, name types.BrickName) (types.CoverageReport, error) {
	if len(data) == 0 {
		return types.CoverageReport{Missing: true}, nil
	}

	var doc coverageDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.CoverageReport{Missing: true}, err
	}

	report := types.CoverageReport{PercentCovered: doc.Totals.PercentCovered}

	// The files map is keyed by path as measured; match on base name so
	// the workspace directory prefix does not matter.
	want := name.SourceFile()
	for file, entry := range doc.Files {
		if path.Base(file) == want {
			report.MissingLines = entry.MissingLines
			break
		}
	}
	return report, nil
}

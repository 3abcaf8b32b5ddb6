// Package gen produces candidate source from a natural-language request.
//
// Backends implement Generator and return raw model text; structured
// recovery of that text is the salvage package's job, not the backend's.
// The governor treats backends as untrusted: any error or garbage output
// is survivable.
package gen

import (
	"context"

	"github.com/masonry-io/mason/types"
)

// Generator produces raw candidate text for a request.
type Generator interface {
	// Generate produces a first candidate for the request.
	Generate(ctx context.Context, request string) (string, error)
	// Repair produces a corrected candidate given the previous attempt's
	// failure evidence.
	Repair(ctx context.Context, req RepairRequest) (string, error)
}

// RepairRequest carries the failure evidence fed back to the backend.
type RepairRequest struct {
	// Request is the original natural-language request.
	Request string
	// FailureLog is the verifier's failure detail text.
	FailureLog string
	// Summary is the parsed test outcome of the failed attempt.
	Summary types.RunSummary
	// Coverage is the parsed coverage measurement of the failed attempt.
	Coverage types.CoverageReport
	// Code is the candidate source that failed.
	Code string
}

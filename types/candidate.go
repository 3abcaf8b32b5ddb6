// Package types defines core domain types for the Mason runtime.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
	"regexp"
)

// BrickName is a validated identifier for a candidate function.
// The name doubles as the importable module name and the on-disk filename
// stem, so it must be a valid identifier with no path metacharacters.
// Construct via ParseBrickName; the zero value is invalid.
type BrickName string

var brickNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ErrEmptyBrickName is returned when a brick name is empty.
var ErrEmptyBrickName = errors.New("brick name must not be empty")

// ParseBrickName validates raw and returns it as a BrickName.
// Rejects empty strings, path separators, dots, and anything that is not
// a valid identifier. This is the only constructor; raw strings must not
// be cast to BrickName directly.
func ParseBrickName(raw string) (BrickName, error) {
	if raw == "" {
		return "", ErrEmptyBrickName
	}
	if !brickNamePattern.MatchString(raw) {
		return "", fmt.Errorf("invalid brick name %q: must be an identifier (letters, digits, underscore, not starting with a digit)", raw)
	}
	return BrickName(raw), nil
}

// String returns the name as a plain string.
func (n BrickName) String() string { return string(n) }

// SourceFile returns the filename the candidate's code is written to.
func (n BrickName) SourceFile() string { return string(n) + ".py" }

// TestFile returns the filename the candidate's test suite is written to.
func (n BrickName) TestFile() string { return "test_" + string(n) + ".py" }

// Candidate is a proposed source unit plus its test suite, not yet verified.
// Candidates flow strictly forward through the pipeline and are replaced
// wholesale on each repair attempt, never mutated in place.
type Candidate struct {
	// Name is the validated module/file identifier.
	Name BrickName `json:"name"`
	// Code is the source unit, UTF-8 with literal newlines.
	Code string `json:"code"`
	// Test is the accompanying test suite, UTF-8 with literal newlines.
	Test string `json:"test"`
}

// Validate checks the candidate's structural invariants.
// An empty test suite is structurally valid; it simply never verifies,
// and the verifier rejects it downstream.
func (c *Candidate) Validate() error {
	if c == nil {
		return errors.New("candidate is nil")
	}
	if _, err := ParseBrickName(string(c.Name)); err != nil {
		return err
	}
	if c.Code == "" {
		return fmt.Errorf("candidate %s: code must not be empty", c.Name)
	}
	return nil
}

// Package salvage recovers a structured Candidate from raw, possibly
// malformed generator output.
//
// Generator backends frequently wrap JSON in markdown fences, double-escape
// control characters, or emit invalid backslash escapes. Executing code with
// literal two-character `\n` sequences embedded produces silently wrong
// programs rather than a parse error, so newline normalization here is
// mandatory, not cosmetic.
//
// Recovery strategies are attempted in order:
//  1. strict: fence strip + JSON parse + recursive escape decode
//  2. repaired: escape invalid backslashes inside JSON strings, reparse once
//  3. fenced: extract markdown code blocks directly
//  4. marker: treat everything from the earliest def/import marker as code
//
// Recover is a pure function over text; it fails only when no code-like
// content can be located by any strategy.
package salvage

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/masonry-io/mason/types"
)

// Strategy identifies which recovery strategy produced the candidate.
type Strategy string

const (
	// StrategyStrict means the payload parsed as JSON on the first attempt.
	StrategyStrict Strategy = "strict"
	// StrategyRepaired means the payload parsed only after backslash repair.
	StrategyRepaired Strategy = "repaired"
	// StrategyFenced means the candidate was extracted from markdown fences.
	StrategyFenced Strategy = "fenced"
	// StrategyMarker means the candidate was extracted from a def/import marker.
	StrategyMarker Strategy = "marker"
)

// MalformedOutputError indicates that no structured content could be
// salvaged from the generator output. Terminal: the governor does not
// retry it.
type MalformedOutputError struct {
	Msg string
	Err error
}

func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed generator output: %s: %v", e.Msg, e.Err)
	}
	return "malformed generator output: " + e.Msg
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// IsMalformed reports whether err is a MalformedOutputError.
func IsMalformed(err error) bool {
	var m *MalformedOutputError
	return errors.As(err, &m)
}

var (
	openFence   = regexp.MustCompile("(?i)^```(?:json|python)?[ \t]*\r?\n?")
	closeFence  = regexp.MustCompile("\r?\n?```\\s*$")
	fencedBlock = regexp.MustCompile("(?is)```(?:python|json)?[ \t]*\r?\n?(.*?)\r?\n?```")
	unitMarker  = regexp.MustCompile(`\b(def[ \t]+\w+|import[ \t]+\w+|from[ \t]+\w+[ \t]+import)`)
	defName     = regexp.MustCompile(`def[ \t]+([A-Za-z_]\w*)`)
)

// candidatePayload is the JSON shape the generator is prompted to emit.
// Both "filename" (the original contract) and "name" are accepted.
type candidatePayload struct {
	Filename string `json:"filename"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Test     string `json:"test"`
}

// Recover turns raw generator text into a Candidate.
// Returns the strategy used so callers can record recovery metrics.
func Recover(raw string) (*types.Candidate, Strategy, error) {
	cleaned := stripFences(strings.TrimSpace(raw))
	if cleaned == "" {
		return nil, "", &MalformedOutputError{Msg: "empty output"}
	}

	// Strict structured parse.
	if cand, err := parsePayload(cleaned); err == nil {
		return cand, StrategyStrict, nil
	}

	// Best-effort repair: escape invalid backslashes, retry once.
	repaired := escapeInvalidBackslashes(cleaned)
	if cand, err := parsePayload(repaired); err == nil {
		return cand, StrategyRepaired, nil
	}

	// Heuristic extraction from the original (pre-repair) text.
	if cand, ok := extractFenced(strings.TrimSpace(raw)); ok {
		return cand, StrategyFenced, nil
	}
	if cand, ok := extractFromMarker(cleaned); ok {
		return cand, StrategyMarker, nil
	}

	return nil, "", &MalformedOutputError{Msg: "no code-like content found"}
}

// parsePayload attempts a strict JSON parse and decodes doubly-escaped
// control sequences in every string-valued field.
func parsePayload(text string) (*types.Candidate, error) {
	var generic any
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return nil, err
	}
	decoded := decodeEscapesRecursive(generic)

	// Round-trip through the payload struct to pick out the fields.
	data, err := json.Marshal(decoded)
	if err != nil {
		return nil, err
	}
	var p candidatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	rawName := p.Filename
	if rawName == "" {
		rawName = p.Name
	}
	rawName = strings.TrimSuffix(strings.TrimSpace(rawName), ".py")
	name, err := types.ParseBrickName(rawName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Code) == "" {
		return nil, fmt.Errorf("payload has no code field")
	}

	return &types.Candidate{
		Name: name,
		Code: NormalizeCode(p.Code),
		Test: NormalizeCode(p.Test),
	}, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = openFence.ReplaceAllString(cleaned, "")
	cleaned = closeFence.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// decodeEscapesRecursive walks a decoded JSON value and normalizes
// doubly-escaped control sequences in every string.
func decodeEscapesRecursive(v any) any {
	switch val := v.(type) {
	case string:
		return decodeEscapes(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = decodeEscapesRecursive(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = decodeEscapesRecursive(item)
		}
		return out
	default:
		return v
	}
}

// decodeEscapes converts two-character escape sequences that survived JSON
// decoding into their literal characters.
func decodeEscapes(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\r`, "\r")
	s = strings.ReplaceAll(s, `\"`, `"`)
	return s
}

// extractFenced pulls code blocks out of markdown fences. The block
// containing test markers becomes the test suite; remaining blocks are
// joined as the source unit.
func extractFenced(text string) (*types.Candidate, bool) {
	matches := fencedBlock.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, false
	}

	var codeParts []string
	var test string
	for _, m := range matches {
		block := m[1]
		if test == "" && looksLikeTest(block) {
			test = block
			continue
		}
		codeParts = append(codeParts, block)
	}
	if len(codeParts) == 0 && test != "" {
		// Only a test block was fenced; the unit body is not recoverable.
		return nil, false
	}

	code := NormalizeCode(strings.Join(codeParts, "\n"))
	return buildHeuristicCandidate(code, NormalizeCode(test))
}

// extractFromMarker treats everything from the earliest importable-unit
// marker (def/import/from-import) as the unit body.
func extractFromMarker(text string) (*types.Candidate, bool) {
	loc := unitMarker.FindStringIndex(text)
	if loc == nil {
		return nil, false
	}
	code := NormalizeCode(text[loc[0]:])
	return buildHeuristicCandidate(code, "")
}

// buildHeuristicCandidate derives the brick name from the first function
// definition in the recovered code.
func buildHeuristicCandidate(code, test string) (*types.Candidate, bool) {
	if strings.TrimSpace(code) == "" {
		return nil, false
	}
	m := defName.FindStringSubmatch(code)
	if m == nil {
		return nil, false
	}
	name, err := types.ParseBrickName(m[1])
	if err != nil {
		return nil, false
	}
	return &types.Candidate{Name: name, Code: code, Test: test}, true
}

// looksLikeTest reports whether a code block reads as a pytest suite.
func looksLikeTest(block string) bool {
	return strings.Contains(block, "def test_") || strings.Contains(block, "import pytest")
}

// NormalizeCode guarantees literal newlines, folds CRLF, and ensures
// exactly one trailing newline. Empty input stays empty.
func NormalizeCode(code string) string {
	cleaned := decodeEscapes(code)
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")
	cleaned = strings.ReplaceAll(cleaned, "\r", "\n")
	cleaned = strings.Trim(cleaned, "\n")
	if cleaned == "" {
		return ""
	}
	return cleaned + "\n"
}

// Package sandbox executes candidate test suites in isolated throwaway
// workspaces.
//
// Each run materializes the candidate's source and test files into a fresh
// temporary directory, invokes pytest with coverage instrumentation, and
// reads the coverage report back before the directory is removed. Nothing
// the candidate writes survives the run; candidates never touch the host
// working tree or each other.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/masonry-io/mason/iox"
	"github.com/masonry-io/mason/metrics"
	"github.com/masonry-io/mason/types"
)

// DefaultTimeout bounds a single sandbox run when no limit is configured.
const DefaultTimeout = 120 * time.Second

// coverageFile is the report filename pytest-cov writes inside the workspace.
const coverageFile = "coverage.json"

// importShim is prepended to the test file so pytest resolves the module
// under test from the workspace directory regardless of invocation cwd.
const importShim = "import sys\nimport os\nsys.path.append(os.getcwd())\n"

// Config configures sandbox execution.
type Config struct {
	// Python is the interpreter to invoke. Defaults to "python3".
	Python string
	// Timeout is the wall-clock limit per run. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Metrics receives run counters. May be nil.
	Metrics *metrics.Collector
}

// Result is the outcome of one sandbox run.
type Result struct {
	// ExitCode is the pytest process exit code. -1 when the process was
	// killed before exiting normally.
	ExitCode int
	// Output is the combined stdout+stderr of the run.
	Output string
	// CoverageJSON is the raw pytest-cov report, nil when the report was
	// not generated.
	CoverageJSON []byte
	// TimedOut reports whether the run hit the wall-clock limit.
	TimedOut bool
	// Duration is the observed wall-clock time of the run.
	Duration time.Duration
}

// Executor runs candidates in isolated workspaces.
type Executor struct {
	python  string
	timeout time.Duration
	metrics *metrics.Collector
}

// NewExecutor creates an Executor from cfg, applying defaults.
func NewExecutor(cfg Config) *Executor {
	python := cfg.Python
	if python == "" {
		python = "python3"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{python: python, timeout: timeout, metrics: cfg.Metrics}
}

// Run executes the candidate's test suite with coverage instrumentation.
//
// The candidate's code and test files are written into a fresh temporary
// directory which is removed before Run returns. A timed-out run returns a
// populated Result alongside an error matching ErrTimeout; workspace
// failures return errors matching ErrIO. pytest failures are not errors:
// they surface through Result.ExitCode and Result.Output.
func (e *Executor) Run(ctx context.Context, cand *types.Candidate) (*Result, error) {
	if err := cand.Validate(); err != nil {
		return nil, newError(ErrIO, "validate", "", err)
	}
	e.metrics.IncSandboxRun()

	dir, err := os.MkdirTemp("", "mason-sandbox-")
	if err != nil {
		e.metrics.IncSandboxIOError()
		return nil, newError(ErrIO, "materialize", "", err)
	}
	defer iox.DiscardErr(func() error { return os.RemoveAll(dir) })

	codePath := filepath.Join(dir, cand.Name.SourceFile())
	testPath := filepath.Join(dir, cand.Name.TestFile())
	if err := os.WriteFile(codePath, []byte(cand.Code), 0o644); err != nil {
		e.metrics.IncSandboxIOError()
		return nil, newError(ErrIO, "materialize", codePath, err)
	}
	if err := os.WriteFile(testPath, []byte(importShim+cand.Test), 0o644); err != nil {
		e.metrics.IncSandboxIOError()
		return nil, newError(ErrIO, "materialize", testPath, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.python, "-m", "pytest",
		testPath,
		"--cov="+cand.Name.String(),
		"--cov-report=json:"+coverageFile,
		"-v",
	)
	cmd.Dir = dir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	result := &Result{
		ExitCode: exitCode(runErr),
		Output:   output.String(),
		Duration: elapsed,
	}

	if runCtx.Err() != nil {
		result.TimedOut = true
		e.metrics.IncSandboxTimeout()
		return result, newError(ErrTimeout, "exec", dir, runCtx.Err())
	}
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		// The process never ran (interpreter missing, not executable).
		return result, newError(ErrInterpreter, "exec", e.python, runErr)
	}

	// Read the coverage report before the deferred cleanup removes it.
	// Absence is not an infrastructure fault; the verifier decides what
	// a missing report means.
	if data, err := os.ReadFile(filepath.Join(dir, coverageFile)); err == nil {
		result.CoverageJSON = data
	}

	return result, nil
}

// exitCode maps a cmd.Run error to the process exit code.
// Returns 0 on nil, -1 when no exit status is available.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

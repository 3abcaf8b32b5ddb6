// Package foreman drives the generate/validate/repair loop.
//
// The governor owns run lifecycle: it asks the generator for a candidate,
// has the sandbox execute it, reads the verifier's verdict, and decides
// between acceptance, another repair round, and abandonment. Termination is
// guaranteed by three independent gates: the attempt ceiling, the
// stagnation window, and the resource budgets. A run always ends with a
// RunReport; faults become rejected reports, never silent crashes.
package foreman

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/masonry-io/mason/assay"
	"github.com/masonry-io/mason/gen"
	"github.com/masonry-io/mason/log"
	"github.com/masonry-io/mason/metrics"
	"github.com/masonry-io/mason/salvage"
	"github.com/masonry-io/mason/sandbox"
	"github.com/masonry-io/mason/types"
)

// Default budget values.
const (
	// DefaultMaxAttempts caps validation attempts per run.
	DefaultMaxAttempts = 10
	// DefaultStagnationLimit is the number of consecutive non-improving
	// attempts tolerated before abandoning.
	DefaultStagnationLimit = 2
)

// filesPerAttempt is how many files one validation materializes
// (source + test).
const filesPerAttempt = 2

// Runner abstracts sandbox execution.
type Runner interface {
	Run(ctx context.Context, cand *types.Candidate) (*sandbox.Result, error)
}

// Saver abstracts brick persistence.
type Saver interface {
	Save(ctx context.Context, cand *types.Candidate, report *types.RunReport) (string, error)
}

// Budgets bound a single run. Zero values for the optional budgets mean
// unlimited; MaxAttempts and StagnationLimit fall back to defaults.
type Budgets struct {
	// MaxAttempts caps validation attempts. Default DefaultMaxAttempts.
	MaxAttempts int
	// StagnationLimit is the consecutive non-improving attempt ceiling.
	// Default DefaultStagnationLimit.
	StagnationLimit int
	// MaxGeneratorCalls caps generator invocations. 0 = unlimited.
	MaxGeneratorCalls int
	// MaxWallClock caps total run time. 0 = unlimited.
	MaxWallClock time.Duration
	// MaxFileChanges caps files materialized across all attempts.
	// 0 = unlimited.
	MaxFileChanges int
}

func (b Budgets) withDefaults() Budgets {
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = DefaultMaxAttempts
	}
	if b.StagnationLimit <= 0 {
		b.StagnationLimit = DefaultStagnationLimit
	}
	return b
}

// Config configures a Foreman.
type Config struct {
	// Generator produces candidates. Required.
	Generator gen.Generator
	// Runner executes candidates. Required.
	Runner Runner
	// Vault persists accepted bricks. Required.
	Vault Saver
	// Budgets bound the run.
	Budgets Budgets
	// MinCoverage is the acceptance threshold in [0,100]. Zero means the
	// verifier default (100).
	MinCoverage float64
	// RunID labels logs and the checkpoint. May be empty.
	RunID string
	// CheckpointPath, when non-empty, receives the run checkpoint after
	// every attempt.
	CheckpointPath string
	// Logger may be nil.
	Logger *log.Logger
	// Metrics may be nil.
	Metrics *metrics.Collector
}

// Foreman is the retry governor.
type Foreman struct {
	generator  gen.Generator
	runner     Runner
	vault      Saver
	budgets    Budgets
	verifier   assay.Verifier
	runID      string
	checkpoint string
	logger     *log.Logger
	metrics    *metrics.Collector
}

// New creates a Foreman from cfg.
func New(cfg Config) (*Foreman, error) {
	if cfg.Generator == nil {
		return nil, errors.New("foreman: generator is required")
	}
	if cfg.Runner == nil {
		return nil, errors.New("foreman: runner is required")
	}
	if cfg.Vault == nil {
		return nil, errors.New("foreman: vault is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Foreman{
		generator:  cfg.Generator,
		runner:     cfg.Runner,
		vault:      cfg.Vault,
		budgets:    cfg.Budgets.withDefaults(),
		verifier:   assay.Verifier{MinCoverage: cfg.MinCoverage},
		runID:      cfg.RunID,
		checkpoint: cfg.CheckpointPath,
		logger:     logger,
		metrics:    cfg.Metrics,
	}, nil
}

// runState is the mutable state of one run.
type runState struct {
	request      string
	cand         *types.Candidate
	history      []types.AttemptRecord
	genCalls     int
	stagnation   int
	prevCoverage float64
	prevPassRate float64
	filesChanged int
	lastFailure  string
	lastSummary  types.RunSummary
	lastCoverage types.CoverageReport
}

// Run drives one request to a terminal report.
//
// The returned report is always non-nil. The error is non-nil only for
// internal faults (persistence failure, panic); generator failures and
// ordinary rejections are expressed through the report's StopReason.
func (f *Foreman) Run(ctx context.Context, request string) (report *types.RunReport, err error) {
	start := time.Now()
	st := &runState{request: request}

	defer func() {
		if r := recover(); r != nil {
			report = f.finish(st, start, types.StopInternalError, fmt.Sprintf("internal fault: %v", r))
			err = fmt.Errorf("foreman: internal fault: %v", r)
		}
	}()

	f.logger.Info("generating candidate", map[string]any{"request": request})
	raw, genErr := f.generator.Generate(ctx, request)
	st.genCalls++
	if genErr != nil {
		return f.finish(st, start, types.StopGeneratorFailed, "generation failed: "+genErr.Error()), nil
	}
	cand, salvageErr := f.recover(raw)
	if salvageErr != nil {
		return f.finish(st, start, types.StopGeneratorFailed, "generation failed: "+salvageErr.Error()), nil
	}
	st.cand = cand

	for attempt := 1; attempt <= f.budgets.MaxAttempts; attempt++ {
		if reason, breached := f.budgetBreach(st, start); breached {
			return f.finish(st, start, types.StopBudgetExceeded, reason), nil
		}

		verdict := f.validate(ctx, st, attempt)
		f.saveCheckpoint(st, attempt, start, CheckpointInProgress)

		if verdict.Accepted {
			return f.accept(ctx, st, start, attempt)
		}

		// Improvement is measured against the previous attempt. The
		// first attempt has no predecessor and never counts as improving.
		improved := attempt > 1 &&
			(st.lastCoverage.PercentCovered > st.prevCoverage || st.lastSummary.PassRate > st.prevPassRate)
		if improved {
			st.stagnation = 0
		} else {
			st.stagnation++
			f.logger.Debug("no improvement", map[string]any{
				"count": st.stagnation,
				"limit": f.budgets.StagnationLimit,
			})
		}
		if st.stagnation >= f.budgets.StagnationLimit {
			return f.finish(st, start, types.StopStagnated,
				fmt.Sprintf("no improvement for %d consecutive attempts\n%s", f.budgets.StagnationLimit, st.lastFailure)), nil
		}
		if attempt >= f.budgets.MaxAttempts {
			break
		}
		st.prevCoverage = st.lastCoverage.PercentCovered
		st.prevPassRate = st.lastSummary.PassRate

		if f.budgets.MaxGeneratorCalls > 0 && st.genCalls >= f.budgets.MaxGeneratorCalls {
			return f.finish(st, start, types.StopBudgetExceeded,
				fmt.Sprintf("generator call budget (%d) exhausted", f.budgets.MaxGeneratorCalls)), nil
		}

		f.logger.Info("attempt rejected, repairing", map[string]any{
			"attempt": attempt,
			"reason":  string(verdict.Reason),
		})
		raw, genErr := f.generator.Repair(ctx, gen.RepairRequest{
			Request:    request,
			FailureLog: st.lastFailure,
			Summary:    st.lastSummary,
			Coverage:   st.lastCoverage,
			Code:       st.cand.Code,
		})
		st.genCalls++
		if genErr != nil {
			return f.finish(st, start, types.StopGeneratorFailed, "repair failed: "+genErr.Error()), nil
		}
		cand, salvageErr := f.recover(raw)
		if salvageErr != nil {
			return f.finish(st, start, types.StopGeneratorFailed, "repair failed: "+salvageErr.Error()), nil
		}
		st.cand = cand
	}

	return f.finish(st, start, types.StopExhausted,
		fmt.Sprintf("maximum attempts (%d) reached\n%s", f.budgets.MaxAttempts, st.lastFailure)), nil
}

// recover runs salvage and records which strategy was needed.
func (f *Foreman) recover(raw string) (*types.Candidate, error) {
	cand, strategy, err := salvage.Recover(raw)
	if err != nil {
		return nil, err
	}
	switch strategy {
	case salvage.StrategyRepaired:
		f.metrics.IncSalvageRepair()
	case salvage.StrategyFenced, salvage.StrategyMarker:
		f.metrics.IncSalvageFallback()
	}
	return cand, nil
}

// validate runs one sandbox execution and appends its attempt record.
func (f *Foreman) validate(ctx context.Context, st *runState, attempt int) assay.Verdict {
	result, runErr := f.runner.Run(ctx, st.cand)
	st.filesChanged += filesPerAttempt

	var summary types.RunSummary
	coverage := types.CoverageReport{Missing: true}
	var verdict assay.Verdict

	if result == nil || (runErr != nil && !errors.Is(runErr, sandbox.ErrTimeout)) {
		// The sandbox never ran the suite; the fault text feeds the
		// next repair like any other failure. Timeouts carry a usable
		// result and flow through the verifier instead.
		detail := "sandbox returned no result"
		if runErr != nil {
			detail = runErr.Error()
		}
		verdict = assay.Verdict{
			Reason: types.AttemptErrTest,
			Detail: "SANDBOX FAILURE:\n" + detail,
		}
	} else {
		summary = assay.ParseTests(result.Output)
		if cov, covErr := assay.ParseCoverage(result.CoverageJSON, st.cand.Name); covErr == nil {
			coverage = cov
		}
		verdict = f.verifier.Verify(result, summary, coverage)
	}

	status := types.AttemptFail
	if verdict.Accepted {
		status = types.AttemptPass
	}
	st.history = append(st.history, types.AttemptRecord{
		Attempt:     attempt,
		Coverage:    coverage.PercentCovered,
		PassRate:    summary.PassRate,
		TestsPassed: summary.PassedTests,
		TestsTotal:  summary.TotalTests,
		Status:      status,
		ErrorType:   verdict.Reason,
	})
	st.lastFailure = verdict.Detail
	st.lastSummary = summary
	st.lastCoverage = coverage

	f.logger.Info("attempt validated", map[string]any{
		"attempt":   attempt,
		"accepted":  verdict.Accepted,
		"coverage":  coverage.PercentCovered,
		"pass_rate": summary.PassRate,
		"tests":     fmt.Sprintf("%d/%d", summary.PassedTests, summary.TotalTests),
	})
	return verdict
}

// accept persists the verified brick and builds the terminal report.
func (f *Foreman) accept(ctx context.Context, st *runState, start time.Time, attempt int) (*types.RunReport, error) {
	report := f.baseReport(st, start)
	report.Status = types.RunVerified
	report.StopReason = types.StopAccepted
	report.Attempts = attempt

	if _, err := f.vault.Save(ctx, st.cand, report); err != nil {
		// Verified but not persisted is not a success.
		report.Status = types.RunRejected
		report.StopReason = types.StopInternalError
		report.FailureLog = "vault save failed: " + err.Error()
		f.saveCheckpoint(st, attempt, start, CheckpointFailed)
		return report, fmt.Errorf("foreman: vault save failed: %w", err)
	}
	f.saveCheckpoint(st, attempt, start, CheckpointCompleted)
	f.logger.Info("candidate verified", map[string]any{
		"function": st.cand.Name.String(),
		"attempts": attempt,
		"coverage": report.Coverage,
	})
	return report, nil
}

// finish builds a rejected terminal report.
func (f *Foreman) finish(st *runState, start time.Time, reason types.StopReason, failureLog string) *types.RunReport {
	report := f.baseReport(st, start)
	report.Status = types.RunRejected
	report.StopReason = reason
	report.Attempts = len(st.history)
	report.FailureLog = failureLog
	f.saveCheckpoint(st, len(st.history), start, CheckpointFailed)
	f.logger.Warn("run rejected", map[string]any{
		"stop_reason": string(reason),
		"attempts":    report.Attempts,
	})
	return report
}

func (f *Foreman) baseReport(st *runState, start time.Time) *types.RunReport {
	name := ""
	if st.cand != nil {
		name = st.cand.Name.String()
	}
	var snapshot *metrics.Snapshot
	if f.metrics != nil {
		s := f.metrics.Snapshot()
		snapshot = &s
	}
	return &types.RunReport{
		FunctionName:     name,
		Coverage:         st.lastCoverage.PercentCovered,
		TotalTimeSeconds: math.Round(time.Since(start).Seconds()*100) / 100,
		AttemptHistory:   st.history,
		Metrics:          snapshot,
	}
}

// budgetBreach checks the wall-clock and file-change budgets ahead of the
// next validation.
func (f *Foreman) budgetBreach(st *runState, start time.Time) (string, bool) {
	if f.budgets.MaxWallClock > 0 && time.Since(start) > f.budgets.MaxWallClock {
		return fmt.Sprintf("wall-clock budget (%s) exhausted", f.budgets.MaxWallClock), true
	}
	if f.budgets.MaxFileChanges > 0 && st.filesChanged+filesPerAttempt > f.budgets.MaxFileChanges {
		return fmt.Sprintf("file-change budget (%d) exhausted", f.budgets.MaxFileChanges), true
	}
	return "", false
}

// saveCheckpoint is best-effort; checkpoint failures never affect the run.
func (f *Foreman) saveCheckpoint(st *runState, attempt int, start time.Time, status string) {
	if f.checkpoint == "" {
		return
	}
	name := ""
	if st.cand != nil {
		name = st.cand.Name.String()
	}
	cp := &Checkpoint{
		RunID:           f.runID,
		Request:         st.request,
		FunctionName:    name,
		Attempt:         attempt,
		StagnationCount: st.stagnation,
		GeneratorCalls:  st.genCalls,
		WallTimeElapsed: time.Since(start).Seconds(),
		Status:          status,
		History:         st.history,
	}
	if err := writeCheckpoint(f.checkpoint, cp); err != nil {
		f.logger.Warn("checkpoint write failed", map[string]any{"error": err.Error()})
	}
}

// Package metrics provides per-run metrics collection.
//
// The Collector accumulates counters during a single governor run. It is a
// leaf package with no internal dependencies. All increment methods are
// nil-receiver safe so callers never need to guard against an absent
// collector.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all run counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Generator
	GeneratorCalls    int64 `json:"generator_calls"`
	GeneratorFailures int64 `json:"generator_failures"`
	SalvageRepairs    int64 `json:"salvage_repairs"`
	SalvageFallbacks  int64 `json:"salvage_fallbacks"`

	// Sandbox
	SandboxRuns     int64 `json:"sandbox_runs"`
	SandboxTimeouts int64 `json:"sandbox_timeouts"`
	SandboxIOErrors int64 `json:"sandbox_io_errors"`

	// Vault
	VaultSaves          int64 `json:"vault_saves"`
	VaultMirrorFailures int64 `json:"vault_mirror_failures"`

	// Dimensions (informational, set at construction)
	Model string `json:"model,omitempty"`
	RunID string `json:"run_id,omitempty"`
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	generatorCalls    int64
	generatorFailures int64
	salvageRepairs    int64
	salvageFallbacks  int64

	sandboxRuns     int64
	sandboxTimeouts int64
	sandboxIOErrors int64

	vaultSaves          int64
	vaultMirrorFailures int64

	model string
	runID string
}

// NewCollector creates a Collector with dimension labels.
// Both dimensions are informational and may be empty.
func NewCollector(model, runID string) *Collector {
	return &Collector{model: model, runID: runID}
}

// --- Generator ---

// IncGeneratorCall records one generator invocation (generate or repair).
func (c *Collector) IncGeneratorCall() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.generatorCalls++
	c.mu.Unlock()
}

// IncGeneratorFailure records a generator call that returned an error.
func (c *Collector) IncGeneratorFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.generatorFailures++
	c.mu.Unlock()
}

// IncSalvageRepair records a generator payload that only parsed after the
// backslash-repair pass.
func (c *Collector) IncSalvageRepair() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.salvageRepairs++
	c.mu.Unlock()
}

// IncSalvageFallback records a generator payload recovered by heuristic
// code-block extraction rather than structured parsing.
func (c *Collector) IncSalvageFallback() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.salvageFallbacks++
	c.mu.Unlock()
}

// --- Sandbox ---

// IncSandboxRun records one sandbox execution.
func (c *Collector) IncSandboxRun() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sandboxRuns++
	c.mu.Unlock()
}

// IncSandboxTimeout records a sandbox run terminated by the wall-clock limit.
func (c *Collector) IncSandboxTimeout() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sandboxTimeouts++
	c.mu.Unlock()
}

// IncSandboxIOError records a sandbox run that failed to materialize files.
func (c *Collector) IncSandboxIOError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sandboxIOErrors++
	c.mu.Unlock()
}

// --- Vault ---

// IncVaultSave records a persisted brick.
func (c *Collector) IncVaultSave() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.vaultSaves++
	c.mu.Unlock()
}

// IncVaultMirrorFailure records a failed (non-fatal) S3 mirror upload.
func (c *Collector) IncVaultMirrorFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.vaultMirrorFailures++
	c.mu.Unlock()
}

// Snapshot returns an immutable copy of all counters.
// Safe to call on a nil collector; returns a zero snapshot.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		GeneratorCalls:      c.generatorCalls,
		GeneratorFailures:   c.generatorFailures,
		SalvageRepairs:      c.salvageRepairs,
		SalvageFallbacks:    c.salvageFallbacks,
		SandboxRuns:         c.sandboxRuns,
		SandboxTimeouts:     c.sandboxTimeouts,
		SandboxIOErrors:     c.sandboxIOErrors,
		VaultSaves:          c.vaultSaves,
		VaultMirrorFailures: c.vaultMirrorFailures,
		Model:               c.model,
		RunID:               c.runID,
	}
}

package metrics

import "testing"

func TestCollector_Counts(t *testing.T) {
	c := NewCollector("qwen2.5-coder", "run-1")

	c.IncGeneratorCall()
	c.IncGeneratorCall()
	c.IncGeneratorFailure()
	c.IncSalvageRepair()
	c.IncSandboxRun()
	c.IncSandboxTimeout()
	c.IncVaultSave()
	c.IncVaultMirrorFailure()

	s := c.Snapshot()
	if s.GeneratorCalls != 2 {
		t.Errorf("GeneratorCalls = %d, want 2", s.GeneratorCalls)
	}
	if s.GeneratorFailures != 1 || s.SalvageRepairs != 1 {
		t.Errorf("failures/repairs = %d/%d, want 1/1", s.GeneratorFailures, s.SalvageRepairs)
	}
	if s.SandboxRuns != 1 || s.SandboxTimeouts != 1 {
		t.Errorf("sandbox counts = %d/%d, want 1/1", s.SandboxRuns, s.SandboxTimeouts)
	}
	if s.VaultSaves != 1 || s.VaultMirrorFailures != 1 {
		t.Errorf("vault counts = %d/%d, want 1/1", s.VaultSaves, s.VaultMirrorFailures)
	}
	if s.Model != "qwen2.5-coder" || s.RunID != "run-1" {
		t.Errorf("dimensions = %q/%q", s.Model, s.RunID)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.IncGeneratorCall()
	c.IncSandboxRun()
	c.IncVaultSave()

	s := c.Snapshot()
	if s != (Snapshot{}) {
		t.Errorf("nil Snapshot() = %+v, want zero", s)
	}
}

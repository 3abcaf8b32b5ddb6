package foreman

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/masonry-io/mason/iox"
	"github.com/masonry-io/mason/types"
)

// Checkpoint statuses.
const (
	CheckpointInProgress = "in_progress"
	CheckpointCompleted  = "completed"
	CheckpointFailed     = "failed"
)

// Checkpoint is the governor's persisted run state. It is rewritten after
// every attempt so an interrupted run leaves an inspectable trail.
type Checkpoint struct {
	RunID           string                `msgpack:"run_id"`
	Request         string                `msgpack:"request"`
	FunctionName    string                `msgpack:"function_name"`
	Attempt         int                   `msgpack:"attempt"`
	StagnationCount int                   `msgpack:"stagnation_count"`
	GeneratorCalls  int                   `msgpack:"generator_calls"`
	WallTimeElapsed float64               `msgpack:"wall_time_elapsed"`
	Status          string                `msgpack:"status"`
	History         []types.AttemptRecord `msgpack:"history"`
}

// writeCheckpoint persists cp to path via write-to-temp-and-rename so a
// crash never leaves a truncated checkpoint.
func writeCheckpoint(path string, cp *Checkpoint) error {
	data, err := msgpack.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".checkpoint-")
	if err != nil {
		return fmt.Errorf("stage checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer iox.DiscardErr(func() error { return os.Remove(tmpName) })

	if _, err := tmp.Write(data); err != nil {
		iox.DiscardClose(tmp)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint written by a previous run.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := msgpack.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &cp, nil
}

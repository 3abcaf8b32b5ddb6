// Package vault persists verified bricks.
//
// A brick is stored as a directory named after the brick containing the
// source file, the test file, and report.json. Writes are staged in a
// temporary sibling directory and renamed into place so a crash mid-save
// never leaves a partial brick; re-verifying an existing brick replaces it
// wholesale.
package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/masonry-io/mason/iox"
	"github.com/masonry-io/mason/log"
	"github.com/masonry-io/mason/metrics"
	"github.com/masonry-io/mason/types"
)

// DefaultRoot is the vault directory used when none is configured.
const DefaultRoot = "verified_bricks"

// reportFile is the metadata filename inside each brick directory.
const reportFile = "report.json"

// Config configures a Store.
type Config struct {
	// Root is the vault directory. Defaults to DefaultRoot.
	Root string
	// Mirror, when non-nil, receives a copy of every saved brick.
	// Mirror failures are logged and counted, never fatal.
	Mirror *Mirror
	// Logger may be nil.
	Logger *log.Logger
	// Metrics may be nil.
	Metrics *metrics.Collector
}

// Store is the on-disk brick vault.
type Store struct {
	root    string
	mirror  *Mirror
	logger  *log.Logger
	metrics *metrics.Collector
}

// NewStore creates a Store rooted at cfg.Root.
func NewStore(cfg Config) *Store {
	root := cfg.Root
	if root == "" {
		root = DefaultRoot
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Store{root: root, mirror: cfg.Mirror, logger: logger, metrics: cfg.Metrics}
}

// Root returns the vault directory.
func (s *Store) Root() string { return s.root }

// Save persists a verified brick and returns its directory path.
//
// The brick directory is staged and renamed into place atomically with
// respect to readers on the same filesystem. Saving a byte-identical brick
// over an existing one is a no-op. A configured mirror is uploaded after
// the local save; mirror failures do not fail the save.
func (s *Store) Save(ctx context.Context, cand *types.Candidate, report *types.RunReport) (string, error) {
	if err := cand.Validate(); err != nil {
		return "", fmt.Errorf("refusing to save: %w", err)
	}
	if report == nil {
		return "", fmt.Errorf("refusing to save %s: report is nil", cand.Name)
	}

	reportJSON, err := json.MarshalIndent(report, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	reportJSON = append(reportJSON, '\n')

	files := map[string][]byte{
		cand.Name.SourceFile(): []byte(cand.Code),
		cand.Name.TestFile():   []byte(cand.Test),
		reportFile:             reportJSON,
	}

	dest := filepath.Join(s.root, cand.Name.String())
	if sameContents(dest, files) {
		s.logger.Debug("brick unchanged, skipping save", map[string]any{"path": dest})
		return dest, nil
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create vault root: %w", err)
	}
	stage, err := os.MkdirTemp(s.root, ".stage-"+cand.Name.String()+"-")
	if err != nil {
		return "", fmt.Errorf("stage brick: %w", err)
	}
	defer iox.DiscardErr(func() error { return os.RemoveAll(stage) })

	for name, data := range files {
		if err := os.WriteFile(filepath.Join(stage, name), data, 0o644); err != nil {
			return "", fmt.Errorf("stage %s: %w", name, err)
		}
	}

	// Replace any previous version wholesale.
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("remove previous brick: %w", err)
	}
	if err := os.Rename(stage, dest); err != nil {
		return "", fmt.Errorf("commit brick: %w", err)
	}
	s.metrics.IncVaultSave()
	s.logger.Info("brick stored", map[string]any{
		"path":     dest,
		"attempts": report.Attempts,
		"coverage": report.Coverage,
	})

	if s.mirror != nil {
		s.uploadMirror(ctx, cand.Name, files)
	}
	return dest, nil
}

func (s *Store) uploadMirror(ctx context.Context, name types.BrickName, files map[string][]byte) {
	for file, data := range files {
		key := name.String() + "/" + file
		if err := s.mirror.Upload(ctx, key, data); err != nil {
			s.metrics.IncVaultMirrorFailure()
			s.logger.Warn("mirror upload failed", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}

// List returns the names of stored bricks in lexical order.
// A missing vault directory is an empty vault, not an error.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read vault: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		// Only directories holding a report qualify as bricks.
		if _, err := os.Stat(filepath.Join(s.root, entry.Name(), reportFile)); err != nil {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// LoadReport reads the stored run report of a brick.
func (s *Store) LoadReport(name types.BrickName) (*types.RunReport, error) {
	data, err := os.ReadFile(filepath.Join(s.root, name.String(), reportFile))
	if err != nil {
		return nil, fmt.Errorf("read report for %s: %w", name, err)
	}
	var report types.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report for %s: %w", name, err)
	}
	return &report, nil
}

// Load reads a stored brick's candidate files and report.
func (s *Store) Load(name types.BrickName) (*types.Candidate, *types.RunReport, error) {
	report, err := s.LoadReport(name)
	if err != nil {
		return nil, nil, err
	}
	code, err := os.ReadFile(filepath.Join(s.root, name.String(), name.SourceFile()))
	if err != nil {
		return nil, nil, fmt.Errorf("read code for %s: %w", name, err)
	}
	test, err := os.ReadFile(filepath.Join(s.root, name.String(), name.TestFile()))
	if err != nil {
		return nil, nil, fmt.Errorf("read test for %s: %w", name, err)
	}
	return &types.Candidate{Name: name, Code: string(code), Test: string(test)}, report, nil
}

// sameContents reports whether dir already holds exactly these files.
func sameContents(dir string, files map[string][]byte) bool {
	for name, data := range files {
		existing, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil || !bytes.Equal(existing, data) {
			return false
		}
	}
	return true
}

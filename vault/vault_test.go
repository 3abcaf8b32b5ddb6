package vault

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/masonry-io/mason/types"
)

func verifiedBrick(t *testing.T) (*types.Candidate, *types.RunReport) {
	t.Helper()
	name, err := types.ParseBrickName("add")
	if err != nil {
		t.Fatalf("ParseBrickName: %v", err)
	}
	cand := &types.Candidate{
		Name: name,
		Code: "def add(a, b):\n    return a + b\n",
		Test: "from add import add\n\ndef test_add():\n    assert add(1, 2) == 3\n",
	}
	report := &types.RunReport{
		FunctionName: "add",
		Status:       types.RunVerified,
		Attempts:     1,
		Coverage:     100.0,
		StopReason:   types.StopAccepted,
	}
	return cand, report
}

func TestSave_WritesBrickLayout(t *testing.T) {
	store := NewStore(Config{Root: filepath.Join(t.TempDir(), "vault")})
	cand, report := verifiedBrick(t)

	dir, err := store.Save(context.Background(), cand, report)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	code, err := os.ReadFile(filepath.Join(dir, "add.py"))
	if err != nil {
		t.Fatalf("read code: %v", err)
	}
	if string(code) != cand.Code {
		t.Errorf("code = %q, want %q", code, cand.Code)
	}
	if _, err := os.Stat(filepath.Join(dir, "test_add.py")); err != nil {
		t.Errorf("test file missing: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var loaded types.RunReport
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if loaded.Status != types.RunVerified {
		t.Errorf("report status = %q, want verified", loaded.Status)
	}
}

func TestSave_ReplacesPreviousVersion(t *testing.T) {
	store := NewStore(Config{Root: t.TempDir()})
	cand, report := verifiedBrick(t)

	if _, err := store.Save(context.Background(), cand, report); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}

	updated := *cand
	updated.Code = "def add(a, b):\n    return b + a\n"
	report.Attempts = 3
	dir, err := store.Save(context.Background(), &updated, report)
	if err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	code, _ := os.ReadFile(filepath.Join(dir, "add.py"))
	if string(code) != updated.Code {
		t.Errorf("old version not replaced: %q", code)
	}
}

func TestSave_IdenticalBrickIsNoOp(t *testing.T) {
	store := NewStore(Config{Root: t.TempDir()})
	cand, report := verifiedBrick(t)

	first, err := store.Save(context.Background(), cand, report)
	if err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	info1, _ := os.Stat(filepath.Join(first, "report.json"))

	second, err := store.Save(context.Background(), cand, report)
	if err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
	info2, _ := os.Stat(filepath.Join(second, "report.json"))
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Error("identical save rewrote files")
	}
}

func TestSave_NoStageLeftovers(t *testing.T) {
	root := t.TempDir()
	store := NewStore(Config{Root: root})
	cand, report := verifiedBrick(t)

	if _, err := store.Save(context.Background(), cand, report); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "add" {
			t.Errorf("unexpected entry in vault root: %q", e.Name())
		}
	}
}

func TestSave_RejectsInvalidCandidate(t *testing.T) {
	store := NewStore(Config{Root: t.TempDir()})
	_, report := verifiedBrick(t)

	if _, err := store.Save(context.Background(), &types.Candidate{Name: "x"}, report); err == nil {
		t.Error("Save() accepted candidate without code")
	}
}

func TestListAndLoad(t *testing.T) {
	store := NewStore(Config{Root: t.TempDir()})
	cand, report := verifiedBrick(t)

	if _, err := store.Save(context.Background(), cand, report); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	names, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 1 || names[0] != "add" {
		t.Fatalf("List() = %v, want [add]", names)
	}

	loaded, loadedReport, err := store.Load(cand.Name)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Code != cand.Code {
		t.Errorf("loaded code = %q", loaded.Code)
	}
	if loadedReport.Coverage != 100.0 {
		t.Errorf("loaded coverage = %v", loadedReport.Coverage)
	}
}

func TestList_EmptyVault(t *testing.T) {
	store := NewStore(Config{Root: filepath.Join(t.TempDir(), "never-created")})

	names, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}
}

// fakePutter records uploads and optionally fails.
type fakePutter struct {
	keys []string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, *params.Key)
	return &s3.PutObjectOutput{}, nil
}

func TestSave_MirrorsAllFiles(t *testing.T) {
	putter := &fakePutter{}
	store := NewStore(Config{
		Root:   t.TempDir(),
		Mirror: &Mirror{client: putter, bucket: "bricks", prefix: "mason"},
	})
	cand, report := verifiedBrick(t)

	if _, err := store.Save(context.Background(), cand, report); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(putter.keys) != 3 {
		t.Fatalf("uploaded %d objects, want 3: %v", len(putter.keys), putter.keys)
	}
	seen := map[string]bool{}
	for _, k := range putter.keys {
		seen[k] = true
	}
	for _, want := range []string{"mason/add/add.py", "mason/add/test_add.py", "mason/add/report.json"} {
		if !seen[want] {
			t.Errorf("missing mirrored key %q in %v", want, putter.keys)
		}
	}
}

func TestSave_MirrorFailureIsNotFatal(t *testing.T) {
	putter := &fakePutter{err: context.DeadlineExceeded}
	store := NewStore(Config{
		Root:   t.TempDir(),
		Mirror: &Mirror{client: putter, bucket: "bricks"},
	})
	cand, report := verifiedBrick(t)

	if _, err := store.Save(context.Background(), cand, report); err != nil {
		t.Fatalf("Save() error = %v, mirror failure must not fail the save", err)
	}
}

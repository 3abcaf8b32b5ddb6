package types

import (
	"errors"
	"testing"
)

func TestParseBrickName(t *testing.T) {
	valid := []string{"add", "parse_json", "_private", "Fn2"}
	for _, name := range valid {
		if _, err := ParseBrickName(name); err != nil {
			t.Errorf("ParseBrickName(%q) error = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "2start", "../evil", "a.b", "a/b", "a b", "a-b"}
	for _, name := range invalid {
		if _, err := ParseBrickName(name); err == nil {
			t.Errorf("ParseBrickName(%q) = nil error, want rejection", name)
		}
	}

	if _, err := ParseBrickName(""); !errors.Is(err, ErrEmptyBrickName) {
		t.Errorf("empty name error = %v, want ErrEmptyBrickName", err)
	}
}

func TestBrickName_Files(t *testing.T) {
	name, err := ParseBrickName("add")
	if err != nil {
		t.Fatalf("ParseBrickName: %v", err)
	}
	if got := name.SourceFile(); got != "add.py" {
		t.Errorf("SourceFile() = %q, want add.py", got)
	}
	if got := name.TestFile(); got != "test_add.py" {
		t.Errorf("TestFile() = %q, want test_add.py", got)
	}
}

func TestCandidate_Validate(t *testing.T) {
	name, _ := ParseBrickName("add")

	ok := &Candidate{Name: name, Code: "def add(): pass\n", Test: ""}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() error = %v for valid candidate", err)
	}

	if err := (&Candidate{Name: name}).Validate(); err == nil {
		t.Error("Validate() accepted empty code")
	}
	if err := (&Candidate{Name: "not valid!", Code: "x"}).Validate(); err == nil {
		t.Error("Validate() accepted invalid name")
	}
	var nilCand *Candidate
	if err := nilCand.Validate(); err == nil {
		t.Error("Validate() accepted nil candidate")
	}
}

func TestNewRunSummary(t *testing.T) {
	s := NewRunSummary([]TestOutcome{
		{Name: "a", Status: TestPassed},
		{Name: "b", Status: TestFailed},
		{Name: "c", Status: TestErrored},
		{Name: "d", Status: TestPassed},
	})

	if s.TotalTests != 4 || s.PassedTests != 2 || s.FailedTests != 2 {
		t.Errorf("counts = %d/%d/%d, want 4/2/2", s.TotalTests, s.PassedTests, s.FailedTests)
	}
	if s.PassRate != 0.5 {
		t.Errorf("PassRate = %v, want 0.5", s.PassRate)
	}
	if s.AllPassed() {
		t.Error("AllPassed() = true with failures")
	}
}

func TestNewRunSummary_Empty(t *testing.T) {
	s := NewRunSummary(nil)
	if s.PassRate != 0 {
		t.Errorf("PassRate = %v, want 0", s.PassRate)
	}
	if s.AllPassed() {
		t.Error("AllPassed() = true for empty suite")
	}
}

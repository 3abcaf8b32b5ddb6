package cmd

import (
	"errors"
	"testing"
	"time"

	"github.com/masonry-io/mason/types"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		report *types.RunReport
		err    error
		want   int
	}{
		{
			"verified",
			&types.RunReport{Status: types.RunVerified, StopReason: types.StopAccepted},
			nil,
			exitVerified,
		},
		{
			"rejected exhausted",
			&types.RunReport{Status: types.RunRejected, StopReason: types.StopExhausted},
			nil,
			exitRejected,
		},
		{
			"rejected stagnated",
			&types.RunReport{Status: types.RunRejected, StopReason: types.StopStagnated},
			nil,
			exitRejected,
		},
		{
			"rejected budget",
			&types.RunReport{Status: types.RunRejected, StopReason: types.StopBudgetExceeded},
			nil,
			exitRejected,
		},
		{
			"generator failed",
			&types.RunReport{Status: types.RunRejected, StopReason: types.StopGeneratorFailed},
			nil,
			exitGeneratorFailure,
		},
		{
			"internal stop reason",
			&types.RunReport{Status: types.RunRejected, StopReason: types.StopInternalError},
			nil,
			exitInternalError,
		},
		{
			"run error wins",
			&types.RunReport{Status: types.RunRejected, StopReason: types.StopExhausted},
			errors.New("boom"),
			exitInternalError,
		},
		{
			"nil report",
			nil,
			nil,
			exitInternalError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.report, tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "flag", "config"); got != "flag" {
		t.Errorf("firstNonEmpty = %q, want flag", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty = %q, want empty", got)
	}
}

func TestFirstInt(t *testing.T) {
	if got := firstInt(0, 5, 10); got != 5 {
		t.Errorf("firstInt = %d, want 5", got)
	}
	if got := firstInt(0, 0); got != 0 {
		t.Errorf("firstInt = %d, want 0", got)
	}
}

func TestFirstDuration(t *testing.T) {
	if got := firstDuration(0, time.Minute); got != time.Minute {
		t.Errorf("firstDuration = %v, want 1m", got)
	}
}

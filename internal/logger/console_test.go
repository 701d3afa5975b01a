package logger

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/harrison/sift/internal/executor"
	"github.com/harrison/sift/internal/models"
)

// TestNewConsoleLogger verifies the constructor creates a ConsoleLogger with the provided writer.
func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "info")

		if logger.writer != buf {
			t.Error("writer not set correctly")
		}
		if logger.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", logger.logLevel)
		}
		if logger.colorOutput {
			t.Error("buffers are never terminals")
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "info")
		logger.LogError("dropped")
		if logger.writer != nil {
			t.Error("expected nil writer")
		}
	})
}

func TestLogLineFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")
	logger.LogInfo("hello")

	pattern := regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[INFO\] hello\n$`)
	if !pattern.MatchString(buf.String()) {
		t.Errorf("unexpected format %q", buf.String())
	}
}

func exitCode(code int) *int {
	return &code
}

func TestLogInvocation(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		outcome  models.ExecutionOutcome
		contains []string
		empty    bool
	}{
		{
			name:  "success at debug",
			level: "debug",
			outcome: models.ExecutionOutcome{
				Mode:     models.ModePerEntry,
				Argv:     []string{"echo", "a"},
				ExitCode: exitCode(0),
				Duration: 1500 * time.Millisecond,
			},
			contains: []string{"[DEBUG]", "exec 'echo a' ok (1s)"},
		},
		{
			name:  "success hidden at warn",
			level: "warn",
			outcome: models.ExecutionOutcome{
				Mode:     models.ModePerEntry,
				Argv:     []string{"echo", "a"},
				ExitCode: exitCode(0),
			},
			empty: true,
		},
		{
			name:  "non-zero exit at debug",
			level: "debug",
			outcome: models.ExecutionOutcome{
				Mode:     models.ModeBatched,
				Argv:     []string{"grep", "x", "a", "b"},
				ExitCode: exitCode(2),
			},
			contains: []string{"[DEBUG]", "exec-batch failed", "grep x a b", "status 2"},
		},
		{
			name:  "failure hidden at warn",
			level: "warn",
			outcome: models.ExecutionOutcome{
				Mode:     models.ModeBatched,
				Argv:     []string{"grep", "x", "a", "b"},
				ExitCode: exitCode(2),
			},
			empty: true,
		},
		{
			name:  "spawn failure at debug",
			level: "debug",
			outcome: models.ExecutionOutcome{
				Mode:     models.ModePerEntry,
				Argv:     []string{"nope"},
				SpawnErr: executor.NewSpawnError("nope", errors.New("executable file not found")),
			},
			contains: []string{"[DEBUG]", "failed to execute 'nope'", "not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			NewConsoleLogger(buf, tt.level).LogInvocation(tt.outcome)

			output := buf.String()
			if tt.empty {
				if output != "" {
					t.Errorf("expected no output, got %q", output)
				}
				return
			}
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("output %q missing %q", output, want)
				}
			}
		})
	}
}

func TestLogSkipped(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "debug")
	logger.LogSkipped("a/b", errors.New("permission denied"))

	if !strings.Contains(buf.String(), "[DEBUG] skipping a/b: permission denied") {
		t.Errorf("unexpected output %q", buf.String())
	}

	quiet := &bytes.Buffer{}
	NewConsoleLogger(quiet, "info").LogSkipped("a/b", errors.New("x"))
	if quiet.Len() != 0 {
		t.Errorf("skips must be debug only, got %q", quiet.String())
	}
}

func TestLogSummary(t *testing.T) {
	t.Run("failed run", func(t *testing.T) {
		buf := &bytes.Buffer{}
		summary := executor.Summary{
			RunID:       "run-1",
			Invocations: 12,
			Failures:    1,
			Failed:      true,
			Errors:      multierror.Append(nil, errors.New("boom")),
		}
		NewConsoleLogger(buf, "info").LogSummary(summary, 3*time.Second)

		output := buf.String()
		for _, want := range []string{"12 invocations", "1 failed", "(3s)", "run=run-1"} {
			if !strings.Contains(output, want) {
				t.Errorf("output %q missing %q", output, want)
			}
		}
	})

	t.Run("nothing ran", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewConsoleLogger(buf, "trace").LogSummary(executor.Summary{}, time.Second)
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("interrupted", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewConsoleLogger(buf, "info").LogSummary(executor.Summary{Invocations: 1, Interrupted: true}, 0)
		if !strings.Contains(buf.String(), "[interrupted]") {
			t.Errorf("missing interrupted marker in %q", buf.String())
		}
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{time.Hour, "1h"},
		{time.Hour + 1*time.Second, "1h0m1s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestConcurrentLogging verifies lines from many goroutines are never split.
func TestConcurrentLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.LogInfo(fmt.Sprintf("message %d", i))
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 50 {
		t.Fatalf("expected 50 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, "[INFO] message ") {
			t.Errorf("malformed line %q", line)
		}
	}
}

func TestNoOpLogger(t *testing.T) {
	var _ executor.Logger = NewNoOpLogger()
	var _ executor.Logger = NewConsoleLogger(nil, "info")

	n := NewNoOpLogger()
	n.LogInvocation(models.ExecutionOutcome{})
	n.LogSkipped("x", nil)
	n.LogSummary(executor.Summary{}, 0)
}

package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harrison/sift/internal/models"
)

// Template and command set construction errors.
var (
	ErrEmptyCommand          = errors.New("command template is empty")
	ErrMultiplePlaceholders  = errors.New("batch commands accept at most one placeholder")
	ErrPlaceholderExecutable = errors.New("batch command executable cannot contain a placeholder")
	ErrConflictingModes      = errors.New("--exec and --exec-batch cannot be combined")
	ErrInvalidBatchSize      = errors.New("batch size cannot be negative")
)

// TemplateError reports a command template that failed to compile.
type TemplateError struct {
	Args []string // Raw template arguments
	Err  error    // Kind sentinel
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("invalid command %q: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// SpawnError reports a child process that could not be started.
type SpawnError struct {
	Executable string    // argv[0]
	Err        error     // Underlying os/exec error
	Timestamp  time.Time // When the spawn was attempted
}

// NewSpawnError creates a new SpawnError with the current timestamp.
func NewSpawnError(executable string, err error) *SpawnError {
	return &SpawnError{
		Executable: executable,
		Err:        err,
		Timestamp:  time.Now(),
	}
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to execute '%s': %v", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExitError reports a child process that exited unsuccessfully.
// Code is -1 when the child was terminated by a signal.
type ExitError struct {
	Argv  []string
	Code  int
	Paths int // Number of search results handed to the invocation
}

func (e *ExitError) Error() string {
	if e.Code < 0 {
		return fmt.Sprintf("command '%s' was terminated by a signal", strings.Join(e.Argv, " "))
	}
	return fmt.Sprintf("command '%s' exited with status %d", strings.Join(e.Argv, " "), e.Code)
}

// OutcomeError converts a finished invocation into its error, or nil when it
// succeeded.
func OutcomeError(outcome models.ExecutionOutcome) error {
	if outcome.SpawnErr != nil {
		return outcome.SpawnErr
	}
	if outcome.Success() {
		return nil
	}
	code := -1
	if outcome.ExitCode != nil {
		code = *outcome.ExitCode
	}
	return &ExitError{Argv: outcome.Argv, Code: code, Paths: outcome.Paths}
}

// IsSpawnError checks if the error is or wraps a SpawnError.
func IsSpawnError(err error) bool {
	if err == nil {
		return false
	}
	var se *SpawnError
	return errors.As(err, &se)
}

// IsExitError checks if the error is or wraps an ExitError.
func IsExitError(err error) bool {
	if err == nil {
		return false
	}
	var ee *ExitError
	return errors.As(err, &ee)
}

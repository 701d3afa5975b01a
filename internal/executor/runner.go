package executor

import (
	"errors"
	"io"
	"os/exec"
	"time"

	"github.com/harrison/sift/internal/models"
)

// Stdio is the standard streams handed to a child. Nil fields mean the null
// device, as with os/exec.
type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Runner starts a child and waits for it. Implementations never return
// before the child has terminated.
type Runner interface {
	Run(argv []string, stdio Stdio) models.ExecutionOutcome
}

// ProcessRunner runs children with os/exec. The command line is passed as
// argv without shell interpretation.
type ProcessRunner struct{}

// Run implements Runner.
func (ProcessRunner) Run(argv []string, stdio Stdio) models.ExecutionOutcome {
	outcome := models.ExecutionOutcome{
		Argv:      argv,
		StartedAt: time.Now(),
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = stdio.Stdin
	cmd.Stdout = stdio.Stdout
	cmd.Stderr = stdio.Stderr

	if err := cmd.Start(); err != nil {
		outcome.SpawnErr = NewSpawnError(argv[0], err)
		outcome.Duration = time.Since(outcome.StartedAt)
		return outcome
	}

	err := cmd.Wait()
	outcome.Duration = time.Since(outcome.StartedAt)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// The child ran but copying its output failed.
		outcome.SpawnErr = NewSpawnError(argv[0], err)
		return outcome
	}
	if code := cmd.ProcessState.ExitCode(); code >= 0 {
		outcome.ExitCode = &code
	}
	return outcome
}

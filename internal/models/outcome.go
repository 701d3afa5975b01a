package models

import (
	"fmt"
	"strings"
	"time"
)

// Invocation modes recorded on outcomes.
const (
	ModePerEntry = "exec"
	ModeBatched  = "exec-batch"
)

// ExecutionOutcome is the result of one spawned invocation.
// ExitCode is nil when the child never started or was terminated by a signal.
type ExecutionOutcome struct {
	RunID     string        // Identifier shared by all invocations of one run
	Mode      string        // ModePerEntry or ModeBatched
	Argv      []string      // Full argument vector, executable first
	Paths     int           // Number of matched paths substituted into Argv
	ExitCode  *int          // Child exit status
	SpawnErr  error         // Set when the child could not be started
	StartedAt time.Time     // When the spawn was attempted
	Duration  time.Duration // Time from spawn to termination
}

// Success reports whether the child started and exited with status zero.
func (o ExecutionOutcome) Success() bool {
	return o.SpawnErr == nil && o.ExitCode != nil && *o.ExitCode == 0
}

// Command returns the argument vector joined for display.
func (o ExecutionOutcome) Command() string {
	return strings.Join(o.Argv, " ")
}

// Describe returns a one-line human readable status.
func (o ExecutionOutcome) Describe() string {
	switch {
	case o.SpawnErr != nil:
		return fmt.Sprintf("failed to start: %v", o.SpawnErr)
	case o.ExitCode == nil:
		return "terminated by signal"
	case *o.ExitCode == 0:
		return "ok"
	default:
		return fmt.Sprintf("exit status %d", *o.ExitCode)
	}
}

package executor

import "fmt"

// Mode selects how search results become child processes.
type Mode int

const (
	// ModeNone prints results instead of running commands.
	ModeNone Mode = iota
	// ModePerEntry runs every template once per result.
	ModePerEntry
	// ModeBatched runs every template once per batch of results.
	ModeBatched
)

func (m Mode) String() string {
	switch m {
	case ModePerEntry:
		return "exec"
	case ModeBatched:
		return "exec-batch"
	default:
		return "none"
	}
}

// CommandSet is the ordered list of templates run for each entry or batch.
type CommandSet struct {
	mode      Mode
	templates []*Template
	batchSize int
}

// NewCommandSet compiles --exec groups or --exec-batch groups. Supplying both
// is an error. batchSize bounds the paths per batched invocation; 0 leaves
// only the platform command-line limit.
func NewCommandSet(exec, execBatch [][]string, batchSize int) (*CommandSet, error) {
	switch {
	case len(exec) > 0 && len(execBatch) > 0:
		return nil, ErrConflictingModes
	case len(exec) > 0:
		return compileSet(ModePerEntry, exec, 0)
	case len(execBatch) > 0:
		if batchSize < 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, batchSize)
		}
		return compileSet(ModeBatched, execBatch, batchSize)
	default:
		return &CommandSet{mode: ModeNone}, nil
	}
}

func compileSet(mode Mode, groups [][]string, batchSize int) (*CommandSet, error) {
	set := &CommandSet{mode: mode, batchSize: batchSize}
	for _, group := range groups {
		t, err := CompileTemplate(group, mode == ModeBatched)
		if err != nil {
			return nil, err
		}
		set.templates = append(set.templates, t)
	}
	return set, nil
}

// Mode returns the execution mode.
func (c *CommandSet) Mode() Mode {
	if c == nil {
		return ModeNone
	}
	return c.mode
}

// Templates returns the compiled templates in run order.
func (c *CommandSet) Templates() []*Template {
	return c.templates
}

// BatchSize returns the caller's per-batch path limit, 0 when unlimited.
func (c *CommandSet) BatchSize() int {
	return c.batchSize
}

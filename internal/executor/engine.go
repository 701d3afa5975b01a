package executor

import (
	"bytes"
	"context"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/harrison/sift/internal/models"
)

// Logger receives invocation events. Implementations must be safe for
// concurrent use.
type Logger interface {
	LogInvocation(outcome models.ExecutionOutcome)
	Warnf(format string, args ...interface{})
}

// Recorder persists invocation outcomes.
type Recorder interface {
	RecordInvocation(ctx context.Context, outcome models.ExecutionOutcome) error
}

// Engine turns a stream of search results into child processes according to
// a CommandSet. Children are never killed; cancelling the run context only
// stops new dispatches.
type Engine struct {
	commands *CommandSet
	threads  int
	logger   Logger
	recorder Recorder
	runner   Runner
	runID    string
	argMax   int

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	outputMu sync.Mutex
	stats    collector
}

// NewEngine constructs an Engine. threads <= 0 means one worker per CPU.
// The logger parameter is optional and can be nil to disable logging.
func NewEngine(commands *CommandSet, threads int, logger Logger) *Engine {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if threads < 1 {
		threads = 1
	}
	return &Engine{
		commands: commands,
		threads:  threads,
		logger:   logger,
		runner:   ProcessRunner{},
		runID:    uuid.New().String(),
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
}

// SetRunner replaces the process runner.
func (e *Engine) SetRunner(r Runner) {
	e.runner = r
}

// SetRecorder enables invocation history.
func (e *Engine) SetRecorder(r Recorder) {
	e.recorder = r
}

// SetOutput redirects the streams children write to. stdin is only handed to
// batched children; per-entry children read from the null device.
func (e *Engine) SetOutput(stdin io.Reader, stdout, stderr io.Writer) {
	e.stdin = stdin
	e.stdout = stdout
	e.stderr = stderr
}

// SetArgMax overrides the command-line budget used to split batches.
func (e *Engine) SetArgMax(n int) {
	e.argMax = n
}

// RunID returns the identifier stamped on every outcome of this engine.
func (e *Engine) RunID() string {
	return e.runID
}

// Threads returns the size of the per-entry worker pool.
func (e *Engine) Threads() int {
	return e.threads
}

// Run consumes paths until the channel closes or ctx is cancelled and
// returns the aggregate of all invocations.
func (e *Engine) Run(ctx context.Context, paths <-chan string) Summary {
	switch e.commands.Mode() {
	case ModePerEntry:
		e.runPerEntry(ctx, paths)
	case ModeBatched:
		e.runBatched(ctx, paths)
	}
	return e.stats.summary(e.runID, ctx.Err() != nil)
}

// runPerEntry dispatches each path to a bounded pool. A slot is acquired
// before the next path is pulled so the producer is throttled by the pool.
func (e *Engine) runPerEntry(ctx context.Context, paths <-chan string) {
	semaphore := make(chan struct{}, e.threads)
	buffered := e.threads > 1

	var wg sync.WaitGroup

dispatch:
	for {
		select {
		case <-ctx.Done():
			break dispatch
		case semaphore <- struct{}{}:
		}

		var path string
		var ok bool
		select {
		case <-ctx.Done():
			<-semaphore
			break dispatch
		case path, ok = <-paths:
		}
		if !ok {
			<-semaphore
			break
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer func() { <-semaphore }()
			e.executeEntry(ctx, path, buffered)
		}(path)
	}

	wg.Wait()
}

func (e *Engine) executeEntry(ctx context.Context, path string, buffered bool) {
	for _, t := range e.commands.templates {
		argv := t.Instantiate(path)
		if !buffered {
			e.finish(ctx, e.runner.Run(argv, Stdio{Stdout: e.stdout, Stderr: e.stderr}), models.ModePerEntry, 1)
			continue
		}

		var stdout, stderr bytes.Buffer
		outcome := e.runner.Run(argv, Stdio{Stdout: &stdout, Stderr: &stderr})
		e.flush(&stdout, &stderr)
		e.finish(ctx, outcome, models.ModePerEntry, 1)
	}
}

// flush writes one child's captured output without interleaving it with
// other children.
func (e *Engine) flush(stdout, stderr *bytes.Buffer) {
	if stdout.Len() == 0 && stderr.Len() == 0 {
		return
	}
	e.outputMu.Lock()
	defer e.outputMu.Unlock()
	if e.stdout != nil {
		_, _ = stdout.WriteTo(e.stdout)
	}
	if e.stderr != nil {
		_, _ = stderr.WriteTo(e.stderr)
	}
}

// runBatched accumulates paths and runs one batch at a time. The next batch
// is not built until the previous children have exited.
func (e *Engine) runBatched(ctx context.Context, paths <-chan string) {
	budget := e.argMax
	if budget <= 0 {
		budget = CommandLineBudget()
	}
	batch := newBatchBuilder(e.commands.templates, e.commands.batchSize, budget)

collect:
	for {
		var path string
		var ok bool
		select {
		case <-ctx.Done():
			return
		case path, ok = <-paths:
		}
		if !ok {
			break collect
		}

		if !batch.fits(path) {
			e.executeBatch(ctx, batch.take())
		}
		batch.add(path)
		if batch.full() {
			e.executeBatch(ctx, batch.take())
		}
	}

	if !batch.empty() {
		e.executeBatch(ctx, batch.take())
	}
}

func (e *Engine) executeBatch(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	stdio := Stdio{Stdin: e.stdin, Stdout: e.stdout, Stderr: e.stderr}
	for _, t := range e.commands.templates {
		outcome := e.runner.Run(t.InstantiateBatch(paths), stdio)
		e.finish(ctx, outcome, models.ModeBatched, len(paths))
	}
}

func (e *Engine) finish(ctx context.Context, outcome models.ExecutionOutcome, mode string, paths int) {
	outcome.RunID = e.runID
	outcome.Mode = mode
	outcome.Paths = paths

	e.stats.add(outcome)
	if e.logger != nil {
		e.logger.LogInvocation(outcome)
	}
	if e.recorder != nil {
		// History must survive an interrupt that stopped dispatching.
		if err := e.recorder.RecordInvocation(context.WithoutCancel(ctx), outcome); err != nil && e.logger != nil {
			e.logger.Warnf("failed to record invocation: %v", err)
		}
	}
}

package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harrison/sift/internal/models"
)

// fakeRunner records every argv and reports the configured outcome.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	outcome func(argv []string) models.ExecutionOutcome

	active    int32
	maxActive int32
	delay     time.Duration
}

func (f *fakeRunner) Run(argv []string, stdio Stdio) models.ExecutionOutcome {
	n := atomic.AddInt32(&f.active, 1)
	for {
		peak := atomic.LoadInt32(&f.maxActive)
		if n <= peak || atomic.CompareAndSwapInt32(&f.maxActive, peak, n) {
			break
		}
	}
	defer atomic.AddInt32(&f.active, -1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), argv...))
	f.mu.Unlock()

	if stdio.Stdout != nil {
		fmt.Fprintln(stdio.Stdout, strings.Join(argv, " "))
	}
	if f.outcome != nil {
		return f.outcome(argv)
	}
	return exited(argv, 0)
}

func (f *fakeRunner) argvs() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

func exited(argv []string, code int) models.ExecutionOutcome {
	return models.ExecutionOutcome{Argv: argv, ExitCode: &code}
}

type recordingLogger struct {
	mu       sync.Mutex
	outcomes []models.ExecutionOutcome
	warnings []string
}

func (l *recordingLogger) LogInvocation(o models.ExecutionOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes = append(l.outcomes, o)
}

func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

type failingRecorder struct {
	calls int32
}

func (r *failingRecorder) RecordInvocation(ctx context.Context, o models.ExecutionOutcome) error {
	atomic.AddInt32(&r.calls, 1)
	return errors.New("disk full")
}

func feed(paths ...string) <-chan string {
	ch := make(chan string, len(paths))
	for _, p := range paths {
		ch <- p
	}
	close(ch)
	return ch
}

func newTestEngine(t *testing.T, set *CommandSet, threads int, runner Runner) (*Engine, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	e := NewEngine(set, threads, nil)
	e.SetRunner(runner)
	e.SetOutput(nil, &out, &out)
	return e, &out
}

func mustCommandSet(t *testing.T, exec, execBatch [][]string, batchSize int) *CommandSet {
	t.Helper()
	set, err := NewCommandSet(exec, execBatch, batchSize)
	if err != nil {
		t.Fatalf("NewCommandSet() error = %v", err)
	}
	return set
}

func TestNewCommandSet(t *testing.T) {
	none := mustCommandSet(t, nil, nil, 0)
	if none.Mode() != ModeNone {
		t.Errorf("Mode() = %v, want none", none.Mode())
	}

	perEntry := mustCommandSet(t, [][]string{{"echo"}, {"touch", "{}.seen"}}, nil, 0)
	if perEntry.Mode() != ModePerEntry || len(perEntry.Templates()) != 2 {
		t.Errorf("unexpected per-entry set: mode=%v templates=%d", perEntry.Mode(), len(perEntry.Templates()))
	}

	batched := mustCommandSet(t, nil, [][]string{{"ls", "-l"}}, 10)
	if batched.Mode() != ModeBatched || batched.BatchSize() != 10 {
		t.Errorf("unexpected batched set: mode=%v size=%d", batched.Mode(), batched.BatchSize())
	}

	if _, err := NewCommandSet([][]string{{"echo"}}, [][]string{{"echo"}}, 0); !errors.Is(err, ErrConflictingModes) {
		t.Errorf("expected ErrConflictingModes, got %v", err)
	}
	if _, err := NewCommandSet(nil, [][]string{{"echo"}}, -1); !errors.Is(err, ErrInvalidBatchSize) {
		t.Errorf("expected ErrInvalidBatchSize, got %v", err)
	}
	if _, err := NewCommandSet(nil, [][]string{{"echo", "{}", "{}"}}, 0); !errors.Is(err, ErrMultiplePlaceholders) {
		t.Errorf("expected ErrMultiplePlaceholders, got %v", err)
	}
}

func TestEngineBatchSizeSplitsBatches(t *testing.T) {
	runner := &fakeRunner{}
	set := mustCommandSet(t, nil, [][]string{{"echo"}}, 2)
	e, _ := newTestEngine(t, set, 4, runner)

	summary := e.Run(context.Background(), feed("p1", "p2", "p3", "p4", "p5"))

	want := [][]string{
		{"echo", "p1", "p2"},
		{"echo", "p3", "p4"},
		{"echo", "p5"},
	}
	if got := runner.argvs(); !reflect.DeepEqual(got, want) {
		t.Errorf("batches = %q, want %q", got, want)
	}
	if !summary.Success() || summary.Invocations != 3 {
		t.Errorf("summary = %+v, want 3 successful invocations", summary)
	}
}

func TestEngineBatchUnlimitedRunsOnce(t *testing.T) {
	runner := &fakeRunner{}
	set := mustCommandSet(t, nil, [][]string{{"rm", "--", "{}"}}, 0)
	e, _ := newTestEngine(t, set, 1, runner)

	e.Run(context.Background(), feed("a", "b", "c"))

	want := [][]string{{"rm", "--", "a", "b", "c"}}
	if got := runner.argvs(); !reflect.DeepEqual(got, want) {
		t.Errorf("batches = %q, want %q", got, want)
	}
}

func TestEngineBatchRespectsCommandLineBudget(t *testing.T) {
	runner := &fakeRunner{}
	set := mustCommandSet(t, nil, [][]string{{"echo"}}, 0)
	e, _ := newTestEngine(t, set, 1, runner)

	// room for the executable and two 4-byte paths
	e.SetArgMax(argCost("echo") + 2*argCost("aaaa"))
	e.Run(context.Background(), feed("aaaa", "bbbb", "cccc", "dddd", "eeee"))

	want := [][]string{
		{"echo", "aaaa", "bbbb"},
		{"echo", "cccc", "dddd"},
		{"echo", "eeee"},
	}
	if got := runner.argvs(); !reflect.DeepEqual(got, want) {
		t.Errorf("batches = %q, want %q", got, want)
	}
}

func TestEngineBatchOversizedPathRunsAlone(t *testing.T) {
	runner := &fakeRunner{}
	set := mustCommandSet(t, nil, [][]string{{"echo"}}, 0)
	e, _ := newTestEngine(t, set, 1, runner)

	long := strings.Repeat("x", 64)
	e.SetArgMax(argCost("echo") + argCost("a"))
	e.Run(context.Background(), feed("a", long, "b"))

	want := [][]string{{"echo", "a"}, {"echo", long}, {"echo", "b"}}
	if got := runner.argvs(); !reflect.DeepEqual(got, want) {
		t.Errorf("batches = %q, want %q", got, want)
	}
}

func TestEngineBatchRunsEveryTemplateInOrder(t *testing.T) {
	runner := &fakeRunner{}
	set := mustCommandSet(t, nil, [][]string{{"first"}, {"second", "{/}", "end"}}, 0)
	e, _ := newTestEngine(t, set, 1, runner)

	e.Run(context.Background(), feed("d/a", "d/b"))

	want := [][]string{
		{"first", "d/a", "d/b"},
		{"second", "a", "b", "end"},
	}
	if got := runner.argvs(); !reflect.DeepEqual(got, want) {
		t.Errorf("invocations = %q, want %q", got, want)
	}
}

func TestEngineEmptyStreamSpawnsNothing(t *testing.T) {
	for _, set := range []*CommandSet{
		mustCommandSet(t, [][]string{{"echo"}}, nil, 0),
		mustCommandSet(t, nil, [][]string{{"echo"}}, 0),
	} {
		runner := &fakeRunner{}
		e, _ := newTestEngine(t, set, 2, runner)
		summary := e.Run(context.Background(), feed())
		if len(runner.argvs()) != 0 {
			t.Errorf("%v: expected no invocations, got %q", set.Mode(), runner.argvs())
		}
		if !summary.Success() {
			t.Errorf("%v: expected success for empty stream", set.Mode())
		}
	}
}

func TestEnginePerEntryRunsEachPath(t *testing.T) {
	runner := &fakeRunner{}
	set := mustCommandSet(t, [][]string{{"wc", "-c", "{}"}}, nil, 0)
	e, _ := newTestEngine(t, set, 3, runner)

	summary := e.Run(context.Background(), feed("a", "b", "c", "d"))

	seen := map[string]bool{}
	for _, argv := range runner.argvs() {
		if len(argv) != 3 || argv[0] != "wc" || argv[1] != "-c" {
			t.Fatalf("unexpected argv %q", argv)
		}
		seen[argv[2]] = true
	}
	if len(seen) != 4 {
		t.Errorf("expected 4 distinct paths, got %v", seen)
	}
	if summary.Invocations != 4 || !summary.Success() {
		t.Errorf("summary = %+v", summary)
	}
}

func TestEnginePerEntryBoundsConcurrency(t *testing.T) {
	runner := &fakeRunner{delay: 20 * time.Millisecond}
	set := mustCommandSet(t, [][]string{{"sleep"}}, nil, 0)
	e, _ := newTestEngine(t, set, 2, runner)

	e.Run(context.Background(), feed("1", "2", "3", "4", "5", "6"))

	if peak := atomic.LoadInt32(&runner.maxActive); peak > 2 {
		t.Errorf("observed %d concurrent children, want at most 2", peak)
	}
	if len(runner.argvs()) != 6 {
		t.Errorf("expected 6 invocations, got %d", len(runner.argvs()))
	}
}

func TestEnginePerEntryFailureDoesNotAbort(t *testing.T) {
	runner := &fakeRunner{
		outcome: func(argv []string) models.ExecutionOutcome {
			if argv[1] == "bad" {
				return models.ExecutionOutcome{Argv: argv, SpawnErr: NewSpawnError(argv[0], errors.New("no such file"))}
			}
			if argv[1] == "nonzero" {
				return exited(argv, 2)
			}
			return exited(argv, 0)
		},
	}
	set := mustCommandSet(t, [][]string{{"check"}}, nil, 0)
	e, _ := newTestEngine(t, set, 2, runner)
	logger := &recordingLogger{}
	e.logger = logger

	summary := e.Run(context.Background(), feed("ok1", "bad", "ok2", "nonzero", "ok3"))

	if got := len(runner.argvs()); got != 5 {
		t.Fatalf("expected all 5 entries to run, got %d", got)
	}
	if summary.Success() {
		t.Error("expected failed summary")
	}
	if summary.Failures != 2 {
		t.Errorf("Failures = %d, want 2", summary.Failures)
	}
	err := summary.Err()
	if !IsSpawnError(err) || !IsExitError(err) {
		t.Errorf("expected both spawn and exit errors in %v", err)
	}
	if len(logger.outcomes) != 5 {
		t.Errorf("logged %d outcomes, want 5", len(logger.outcomes))
	}
	for _, o := range logger.outcomes {
		if o.RunID != e.RunID() || o.Mode != models.ModePerEntry || o.Paths != 1 {
			t.Errorf("outcome not stamped: %+v", o)
		}
	}
}

func TestEngineBatchFailureContinues(t *testing.T) {
	calls := 0
	runner := &fakeRunner{
		outcome: func(argv []string) models.ExecutionOutcome {
			calls++
			if calls == 1 {
				return exited(argv, 1)
			}
			return exited(argv, 0)
		},
	}
	set := mustCommandSet(t, nil, [][]string{{"grep", "x"}}, 1)
	e, _ := newTestEngine(t, set, 1, runner)

	summary := e.Run(context.Background(), feed("a", "b"))

	if len(runner.argvs()) != 2 {
		t.Errorf("expected both batches to run, got %q", runner.argvs())
	}
	if summary.Success() || summary.Failures != 1 {
		t.Errorf("summary = %+v, want one failure", summary)
	}
}

func TestEngineCancelStopsDispatch(t *testing.T) {
	for _, set := range []*CommandSet{
		mustCommandSet(t, [][]string{{"echo"}}, nil, 0),
		mustCommandSet(t, nil, [][]string{{"echo"}}, 0),
	} {
		runner := &fakeRunner{}
		e, _ := newTestEngine(t, set, 1, runner)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		paths := make(chan string)
		summary := e.Run(ctx, paths)

		if len(runner.argvs()) != 0 {
			t.Errorf("%v: expected no invocations after cancel, got %q", set.Mode(), runner.argvs())
		}
		if !summary.Interrupted {
			t.Errorf("%v: expected interrupted summary", set.Mode())
		}
	}
}

func TestEngineBufferedOutputIsNotInterleaved(t *testing.T) {
	runner := &fakeRunner{delay: time.Millisecond}
	set := mustCommandSet(t, [][]string{{"echo", "{}", "{}"}}, nil, 0)
	e, out := newTestEngine(t, set, 4, runner)

	e.Run(context.Background(), feed("a", "b", "c", "d", "e", "f"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %q", out.String())
	}
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) != 3 || f[1] != f[2] {
			t.Errorf("interleaved output line %q", line)
		}
	}
}

func TestEngineRecorderFailureIsWarned(t *testing.T) {
	runner := &fakeRunner{}
	set := mustCommandSet(t, nil, [][]string{{"echo"}}, 0)
	e, _ := newTestEngine(t, set, 1, runner)
	logger := &recordingLogger{}
	recorder := &failingRecorder{}
	e.logger = logger
	e.SetRecorder(recorder)

	summary := e.Run(context.Background(), feed("a"))

	if !summary.Success() {
		t.Error("recorder failures must not fail the run")
	}
	if calls := atomic.LoadInt32(&recorder.calls); calls != 1 {
		t.Errorf("recorder called %d times, want 1", calls)
	}
	if len(logger.warnings) != 1 || !strings.Contains(logger.warnings[0], "disk full") {
		t.Errorf("warnings = %q", logger.warnings)
	}
}

func TestOutcomeError(t *testing.T) {
	if err := OutcomeError(exited([]string{"true"}, 0)); err != nil {
		t.Errorf("expected nil for success, got %v", err)
	}

	err := OutcomeError(exited([]string{"false", "x"}, 1))
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("expected ExitError with code 1, got %v", err)
	}
	if !strings.Contains(err.Error(), "false x") {
		t.Errorf("error %q does not name the command", err)
	}

	signalled := OutcomeError(models.ExecutionOutcome{Argv: []string{"sleep"}})
	if !strings.Contains(signalled.Error(), "signal") {
		t.Errorf("expected signal error, got %v", signalled)
	}

	spawn := NewSpawnError("nope", errors.New("not found"))
	if got := OutcomeError(models.ExecutionOutcome{SpawnErr: spawn}); got != spawn {
		t.Errorf("expected spawn error passthrough, got %v", got)
	}
}

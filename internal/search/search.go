// Package search wires traversal, metadata filters and output together: it
// either prints matching entries or hands their paths to the command engine.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrison/sift/internal/executor"
	"github.com/harrison/sift/internal/filter"
	"github.com/harrison/sift/internal/logger"
	"github.com/harrison/sift/internal/models"
)

// Walker produces candidate entries.
type Walker interface {
	Walk(ctx context.Context, out chan<- *models.Entry) error
}

// Logger receives pipeline diagnostics.
type Logger interface {
	LogSkipped(path string, err error)
	LogSummary(summary executor.Summary, duration time.Duration)
	Debugf(format string, args ...interface{})
}

// Options controls result handling.
type Options struct {
	// MaxResults stops the search after this many matches (0 = unlimited).
	MaxResults int
	// Quiet prints nothing and stops at the first match.
	Quiet bool
}

// Result describes a finished search.
type Result struct {
	Matches     int
	Summary     executor.Summary
	Interrupted bool
}

// Success reports whether the search should exit with status zero.
func (r Result) Success(quiet bool) bool {
	if r.Interrupted || !r.Summary.Success() {
		return false
	}
	if quiet && r.Matches == 0 {
		return false
	}
	return true
}

// Searcher is one configured search.
type Searcher struct {
	walker  Walker
	filters *filter.Set
	engine  *executor.Engine
	printer *Printer
	logger  Logger
	opts    Options
}

// New creates a Searcher. When engine is nil matches are printed; a nil
// log discards diagnostics.
func New(walker Walker, filters *filter.Set, engine *executor.Engine, printer *Printer, log Logger, opts Options) *Searcher {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Searcher{
		walker:  walker,
		filters: filters,
		engine:  engine,
		printer: printer,
		logger:  log,
		opts:    opts,
	}
}

// Run performs the search until traversal completes, the result limit is
// reached, or ctx is cancelled.
func (s *Searcher) Run(ctx context.Context) (Result, error) {
	walkCtx, stopWalk := context.WithCancel(ctx)
	defer stopWalk()

	entries := make(chan *models.Entry, 256)
	walkErr := make(chan error, 1)
	go func() {
		walkErr <- s.walker.Walk(walkCtx, entries)
		close(entries)
	}()

	var (
		result Result
		err    error
	)
	if s.engine != nil {
		result = s.execute(ctx, entries, stopWalk)
	} else {
		result, err = s.print(entries, stopWalk)
	}

	// Let the walker observe cancellation and finish.
	for range entries {
	}
	if werr := <-walkErr; werr != nil && !errors.Is(werr, context.Canceled) && err == nil {
		err = fmt.Errorf("walk: %w", werr)
	}

	result.Interrupted = ctx.Err() != nil
	s.logger.Debugf("search finished: %d matches", result.Matches)
	return result, err
}

// accept applies the metadata filters. Entries whose metadata cannot be
// read are excluded and logged.
func (s *Searcher) accept(e *models.Entry) bool {
	ok, err := s.filters.Matches(e)
	if err != nil {
		s.logger.LogSkipped(e.Path, err)
		return false
	}
	return ok
}

func (s *Searcher) limitReached(matches int) bool {
	return s.opts.Quiet || (s.opts.MaxResults > 0 && matches >= s.opts.MaxResults)
}

func (s *Searcher) print(entries <-chan *models.Entry, stop context.CancelFunc) (Result, error) {
	var result Result
	for e := range entries {
		if !s.accept(e) {
			continue
		}
		result.Matches++
		if !s.opts.Quiet && s.printer != nil {
			if err := s.printer.Print(e); err != nil {
				stop()
				return result, fmt.Errorf("write output: %w", err)
			}
		}
		if s.limitReached(result.Matches) {
			stop()
			break
		}
	}

	if s.printer != nil {
		if err := s.printer.Flush(); err != nil {
			return result, fmt.Errorf("write output: %w", err)
		}
	}
	return result, nil
}

func (s *Searcher) execute(ctx context.Context, entries <-chan *models.Entry, stop context.CancelFunc) Result {
	start := time.Now()
	paths := make(chan string)
	summaryCh := make(chan executor.Summary, 1)
	go func() {
		summaryCh <- s.engine.Run(ctx, paths)
	}()

	var result Result
dispatch:
	for e := range entries {
		if !s.accept(e) {
			continue
		}
		select {
		case paths <- e.Path:
		case <-ctx.Done():
			break dispatch
		}
		result.Matches++
		if s.opts.MaxResults > 0 && result.Matches >= s.opts.MaxResults {
			break
		}
	}
	stop()
	close(paths)

	result.Summary = <-summaryCh
	s.logger.LogSummary(result.Summary, time.Since(start))
	return result
}

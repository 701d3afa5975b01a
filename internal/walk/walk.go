// Package walk traverses search roots and yields entries whose names match
// the search pattern and the traversal options.
package walk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/sift/internal/models"
)

var (
	// ErrLoop is reported when following a symlink leads back to an ancestor.
	ErrLoop = errors.New("filesystem loop detected")
	// ErrNotDirectory is reported for a search root that is not a directory.
	ErrNotDirectory = errors.New("search path is not a directory")
	// ErrPatternIsPath is returned when the pattern names a directory and
	// full-path matching is off.
	ErrPatternIsPath = errors.New("pattern contains a path separator")
)

// Options configures a Walker.
type Options struct {
	Roots         []string
	Pattern       string
	Glob          bool
	FixedStrings  bool
	Case          CaseMode
	FullPath      bool
	Hidden        bool
	MinDepth      int
	MaxDepth      int // 0 means unlimited
	Types         []string
	Extensions    []string
	Excludes      []string
	Follow        bool
	OneFileSystem bool
	Absolute      bool

	// OnError receives unreadable directories and roots. It may be nil.
	OnError func(path string, err error)
}

// Walker is a compiled set of traversal options.
type Walker struct {
	opts     Options
	matcher  matcher
	excludes excludeSet
	types    typeFilter
	exts     []string
}

// New validates opts and compiles its patterns.
func New(opts Options) (*Walker, error) {
	if len(opts.Roots) == 0 {
		opts.Roots = []string{"."}
	}
	if opts.MinDepth < 0 || opts.MaxDepth < 0 {
		return nil, fmt.Errorf("depth limits cannot be negative")
	}
	if opts.MaxDepth > 0 && opts.MinDepth > opts.MaxDepth {
		return nil, fmt.Errorf("min depth %d exceeds max depth %d", opts.MinDepth, opts.MaxDepth)
	}
	if !opts.FullPath && strings.ContainsRune(opts.Pattern, filepath.Separator) {
		if info, err := os.Stat(opts.Pattern); err == nil && info.IsDir() {
			return nil, fmt.Errorf("%w: %q is a directory; to search inside it use 'sift . %s', or pass --full-path",
				ErrPatternIsPath, opts.Pattern, opts.Pattern)
		}
	}

	m, err := compileMatcher(opts)
	if err != nil {
		return nil, err
	}
	excludes, err := compileExcludes(opts.Excludes)
	if err != nil {
		return nil, err
	}
	types, err := parseTypes(opts.Types)
	if err != nil {
		return nil, err
	}

	w := &Walker{opts: opts, matcher: m, excludes: excludes, types: types}
	for _, ext := range opts.Extensions {
		w.exts = append(w.exts, "."+strings.ToLower(strings.TrimPrefix(ext, ".")))
	}
	return w, nil
}

// Walk sends every matching entry to out. It returns only when all roots
// are exhausted or ctx is cancelled; it does not close out.
func (w *Walker) Walk(ctx context.Context, out chan<- *models.Entry) error {
	for _, root := range w.opts.Roots {
		if err := w.walkRoot(ctx, root, out); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) report(path string, err error) {
	if w.opts.OnError != nil {
		w.opts.OnError(path, err)
	}
}

func (w *Walker) walkRoot(ctx context.Context, root string, out chan<- *models.Entry) error {
	if w.opts.Absolute {
		abs, err := filepath.Abs(root)
		if err != nil {
			w.report(root, err)
			return nil
		}
		root = abs
	}

	info, err := os.Stat(root)
	if err != nil {
		w.report(root, err)
		return nil
	}
	if !info.IsDir() {
		w.report(root, ErrNotDirectory)
		return nil
	}

	rootDev, _ := deviceOf(info)
	ancestors := map[fileKey]struct{}{}
	if key, ok := fileKeyOf(info); ok {
		ancestors[key] = struct{}{}
	}
	return w.walkDir(ctx, root, "", 1, rootDev, ancestors, out)
}

func (w *Walker) walkDir(ctx context.Context, dir, rel string, depth int, rootDev uint64, ancestors map[fileKey]struct{}, out chan<- *models.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	children, err := os.ReadDir(dir)
	if err != nil {
		w.report(dir, err)
		return nil
	}

	for _, d := range children {
		name := d.Name()
		if !w.opts.Hidden && strings.HasPrefix(name, ".") {
			continue
		}

		childRel := name
		if rel != "" {
			childRel = rel + "/" + name
		}
		if w.excludes.excluded(name, childRel) {
			continue
		}

		path := filepath.Join(dir, name)
		entry := w.entryFor(path, depth, d)

		if depth >= w.opts.MinDepth && w.accept(entry) {
			select {
			case out <- entry:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		info, err := entry.Metadata()
		if err != nil || !info.IsDir() {
			continue
		}
		if w.opts.MaxDepth > 0 && depth >= w.opts.MaxDepth {
			continue
		}
		if w.opts.OneFileSystem {
			if dev, ok := deviceOf(info); ok && dev != rootDev {
				continue
			}
		}

		key, tracked := fileKeyOf(info)
		if tracked {
			if _, loop := ancestors[key]; loop {
				w.report(path, ErrLoop)
				continue
			}
			ancestors[key] = struct{}{}
		}
		err = w.walkDir(ctx, path, childRel, depth+1, rootDev, ancestors, out)
		if tracked {
			delete(ancestors, key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// entryFor builds the entry, reusing the directory read's metadata unless a
// symlink has to be resolved.
func (w *Walker) entryFor(path string, depth int, d fs.DirEntry) *models.Entry {
	if w.opts.Follow && d.Type()&fs.ModeSymlink != 0 {
		return models.NewEntry(path, depth, true)
	}
	info, err := d.Info()
	return models.NewEntryWithInfo(path, depth, w.opts.Follow, info, err)
}

func (w *Walker) accept(e *models.Entry) bool {
	if len(w.exts) > 0 && !w.hasExtension(e.Name()) {
		return false
	}

	subject := e.Name()
	if w.opts.FullPath {
		if abs, err := filepath.Abs(e.Path); err == nil {
			subject = filepath.ToSlash(abs)
		}
	}
	if !w.matcher.match(subject) {
		return false
	}
	return w.types.matches(e)
}

func (w *Walker) hasExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range w.exts {
		if strings.HasSuffix(lower, ext) && len(lower) > len(ext) {
			return true
		}
	}
	return false
}

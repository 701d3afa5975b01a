// Package models defines the core domain types shared by sift's packages.
package models

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// EntryType classifies a filesystem object produced by traversal.
type EntryType int

const (
	TypeUnknown EntryType = iota
	TypeFile
	TypeDir
	TypeSymlink
	TypeSocket
	TypePipe
	TypeDevice
)

// String returns the short name used in diagnostics.
func (t EntryType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDir:
		return "directory"
	case TypeSymlink:
		return "symlink"
	case TypeSocket:
		return "socket"
	case TypePipe:
		return "pipe"
	case TypeDevice:
		return "device"
	default:
		return "unknown"
	}
}

// TypeFromMode maps a file mode to an EntryType.
func TypeFromMode(mode fs.FileMode) EntryType {
	switch {
	case mode.IsRegular():
		return TypeFile
	case mode.IsDir():
		return TypeDir
	case mode&fs.ModeSymlink != 0:
		return TypeSymlink
	case mode&fs.ModeSocket != 0:
		return TypeSocket
	case mode&fs.ModeNamedPipe != 0:
		return TypePipe
	case mode&(fs.ModeDevice|fs.ModeCharDevice) != 0:
		return TypeDevice
	default:
		return TypeUnknown
	}
}

// Entry is one filesystem object produced by traversal.
// Metadata is resolved lazily at most once and is safe for concurrent readers.
type Entry struct {
	// Path is the path as discovered (relative or absolute, never rewritten).
	Path string

	// Depth is the distance from the search root; direct children are at depth 1.
	Depth int

	// Follow reports whether metadata resolves through symbolic links.
	Follow bool

	once sync.Once
	info fs.FileInfo
	err  error
}

// NewEntry creates an Entry whose metadata is read on first use.
func NewEntry(path string, depth int, follow bool) *Entry {
	return &Entry{Path: path, Depth: depth, Follow: follow}
}

// NewEntryWithInfo creates an Entry with metadata already known.
// A nil info with a non-nil err records a metadata failure.
func NewEntryWithInfo(path string, depth int, follow bool, info fs.FileInfo, err error) *Entry {
	e := &Entry{Path: path, Depth: depth, Follow: follow, info: info, err: err}
	e.once.Do(func() {})
	return e
}

// Metadata returns the entry's file info, reading it on first call.
func (e *Entry) Metadata() (fs.FileInfo, error) {
	e.once.Do(func() {
		if e.Follow {
			e.info, e.err = os.Stat(e.Path)
		} else {
			e.info, e.err = os.Lstat(e.Path)
		}
	})
	return e.info, e.err
}

// Type returns the entry type, or TypeUnknown when metadata is unavailable.
func (e *Entry) Type() EntryType {
	info, err := e.Metadata()
	if err != nil || info == nil {
		return TypeUnknown
	}
	return TypeFromMode(info.Mode())
}

// Name returns the final path component.
func (e *Entry) Name() string {
	return filepath.Base(e.Path)
}

// IsHidden reports whether the entry's name starts with a dot.
func (e *Entry) IsHidden() bool {
	name := e.Name()
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

package executor

import (
	"path/filepath"
	"strings"
)

// Placeholder is a path-derived substitution point in a command template.
type Placeholder int

const (
	// FullPath "{}" is the path of the search result.
	FullPath Placeholder = iota
	// Basename "{/}" is the final path component.
	Basename
	// ParentDir "{//}" is the path without its final component, "." if none.
	ParentDir
	// PathNoExt "{.}" is the path with its extension removed.
	PathNoExt
	// BasenameNoExt "{/.}" is the final component with its extension removed.
	BasenameNoExt
)

var placeholderTokens = map[string]Placeholder{
	"{}":   FullPath,
	"{/}":  Basename,
	"{//}": ParentDir,
	"{.}":  PathNoExt,
	"{/.}": BasenameNoExt,
}

// Token returns the literal text that denotes the placeholder.
func (p Placeholder) Token() string {
	switch p {
	case Basename:
		return "{/}"
	case ParentDir:
		return "{//}"
	case PathNoExt:
		return "{.}"
	case BasenameNoExt:
		return "{/.}"
	default:
		return "{}"
	}
}

// Apply substitutes path into the placeholder.
func (p Placeholder) Apply(path string) string {
	switch p {
	case Basename:
		return basename(path)
	case ParentDir:
		return dirname(path)
	case PathNoExt:
		return removeExtension(path)
	case BasenameNoExt:
		return stem(basename(path))
	default:
		return path
	}
}

func trimSeparators(path string) string {
	trimmed := strings.TrimRight(path, "/"+string(filepath.Separator))
	if trimmed == "" {
		return path
	}
	return trimmed
}

// basename returns the final component, or the path itself when it has none.
func basename(path string) string {
	return filepath.Base(trimSeparators(path))
}

// dirname returns the path without its final component, "." for a bare name
// and the path itself for a root.
func dirname(path string) string {
	return filepath.Dir(trimSeparators(path))
}

// stem strips the last extension of a file name. Leading-dot names such as
// ".bashrc" have no extension.
func stem(name string) string {
	if name == ".." {
		return name
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name
	}
	return name[:i]
}

// removeExtension strips the extension of the final component, keeping the
// directory part. A leading "./" is dropped.
func removeExtension(path string) string {
	dir := dirname(path)
	name := stem(basename(path))
	if dir == "." {
		return name
	}
	return filepath.Join(dir, name)
}

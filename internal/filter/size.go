package filter

import (
	"fmt"

	"github.com/harrison/sift/internal/models"
)

// Comparator selects how a SizeFilter compares an entry's size to its limit.
type Comparator int

const (
	Exactly Comparator = iota
	AtLeast
	AtMost
)

// SizeFilter matches entries by their on-disk byte length as reported by
// metadata. Directories are compared using the size the filesystem reports
// for the directory entry itself, never a recursive total.
type SizeFilter struct {
	Comparator Comparator
	Limit      uint64
}

// ParseSize parses "<+|-><NUM><UNIT>". A leading "+" means at least,
// "-" means at most and no sign means exactly equal.
func ParseSize(text string) (SizeFilter, error) {
	cmp := Exactly
	rest := text
	if rest != "" {
		switch rest[0] {
		case '+':
			cmp, rest = AtLeast, rest[1:]
		case '-':
			cmp, rest = AtMost, rest[1:]
		}
	}

	limit, err := ParseByteCount(rest)
	if err != nil {
		return SizeFilter{}, newParseError("size", text, err)
	}
	return SizeFilter{Comparator: cmp, Limit: limit}, nil
}

// Name returns the filter kind.
func (f SizeFilter) Name() string {
	return "size"
}

// MatchesSize applies the comparison to a raw byte count.
func (f SizeFilter) MatchesSize(size uint64) bool {
	switch f.Comparator {
	case AtLeast:
		return size >= f.Limit
	case AtMost:
		return size <= f.Limit
	default:
		return size == f.Limit
	}
}

// Matches reports whether the entry's size satisfies the filter.
func (f SizeFilter) Matches(e *models.Entry) (bool, error) {
	info, err := e.Metadata()
	if err != nil || info == nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMetadataUnavailable, e.Path, err)
	}
	size := info.Size()
	if size < 0 {
		size = 0
	}
	return f.MatchesSize(uint64(size)), nil
}

// String renders the filter in a form ParseSize accepts.
func (f SizeFilter) String() string {
	switch f.Comparator {
	case AtLeast:
		return fmt.Sprintf("+%db", f.Limit)
	case AtMost:
		return fmt.Sprintf("-%db", f.Limit)
	default:
		return fmt.Sprintf("%db", f.Limit)
	}
}

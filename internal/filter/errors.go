package filter

import (
	"errors"
	"fmt"
)

// Parse error kinds. Every ParseError unwraps to one of these.
var (
	ErrInvalidUnit   = errors.New("invalid unit")
	ErrInvalidNumber = errors.New("invalid number")
	ErrOverflow      = errors.New("value exceeds the maximum byte count")
	ErrInvalidTime   = errors.New("not a date, time or duration")
	ErrInvalidOwner  = errors.New("not a valid user/group specifier")
	ErrUnknownUser   = errors.New("unknown user")
	ErrUnknownGroup  = errors.New("unknown group")
	ErrInvalidXAttr  = errors.New("attribute name is empty")
)

// ErrMetadataUnavailable marks an entry whose metadata could not be read.
// Entries failing with it are excluded from matches, never fatal to the run.
var ErrMetadataUnavailable = errors.New("metadata unavailable")

// ErrUnsupportedOnPlatform marks a filter kind that cannot run on this platform.
var ErrUnsupportedOnPlatform = errors.New("not supported on this platform")

// ErrXAttrUnsupported is returned when the filesystem has no extended attributes.
var ErrXAttrUnsupported = errors.New("extended attributes not supported by filesystem")

// ParseError describes a malformed filter specification.
type ParseError struct {
	Filter string // Filter kind: size, time, owner, xattr
	Input  string // Raw specification as given
	Err    error  // Kind sentinel, possibly wrapped with detail
}

func newParseError(filter, input string, err error) *ParseError {
	return &ParseError{Filter: filter, Input: input, Err: err}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s filter %q: %v", e.Filter, e.Input, e.Err)
}

// Unwrap returns the underlying error kind.
func (e *ParseError) Unwrap() error {
	return e.Err
}

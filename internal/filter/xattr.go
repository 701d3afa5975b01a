package filter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/harrison/sift/internal/models"
)

// errNoAttribute is returned by readXAttr when the attribute is absent.
var errNoAttribute = errors.New("attribute not set")

// getXAttr reads a raw attribute value; replaced in tests.
var getXAttr = readXAttr

// XAttrFilter matches entries carrying a named extended attribute,
// optionally with an exact byte value.
type XAttrFilter struct {
	Attr     string
	Value    []byte
	HasValue bool
}

// ParseXAttr parses "name" (presence) or "name=value" (exact bytes).
// Everything after the first "=" is the value, taken verbatim.
func ParseXAttr(text string) (XAttrFilter, error) {
	name, value, found := strings.Cut(text, "=")
	if name == "" {
		return XAttrFilter{}, newParseError("xattr", text, ErrInvalidXAttr)
	}
	if !found {
		return XAttrFilter{Attr: name}, nil
	}
	return XAttrFilter{Attr: name, Value: []byte(value), HasValue: true}, nil
}

// Name returns the filter kind.
func (f XAttrFilter) Name() string {
	return "xattr"
}

// MatchesValue applies the filter to a stored value; present is false when
// the attribute does not exist.
func (f XAttrFilter) MatchesValue(value []byte, present bool) bool {
	if !present {
		return false
	}
	if !f.HasValue {
		return true
	}
	return bytes.Equal(value, f.Value)
}

// Matches reads the attribute from the entry. An absent attribute is a plain
// mismatch; unsupported filesystems and permission failures are a mismatch
// carrying the read error for diagnostics.
func (f XAttrFilter) Matches(e *models.Entry) (bool, error) {
	value, err := getXAttr(e.Path, f.Attr, e.Follow)
	switch {
	case errors.Is(err, errNoAttribute):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("read %s on %s: %w", f.Attr, e.Path, err)
	}
	return f.MatchesValue(value, true), nil
}

// String renders the filter in a form ParseXAttr accepts.
func (f XAttrFilter) String() string {
	if f.HasValue {
		return f.Attr + "=" + string(f.Value)
	}
	return f.Attr
}

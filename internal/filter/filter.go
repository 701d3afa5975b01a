// Package filter parses secondary filter specifications (size, modification
// time, ownership, extended attributes) into predicates and evaluates them
// against entry metadata.
//
// Predicates are immutable once parsed and safe for concurrent use. A
// predicate that cannot read the metadata it needs reports false together
// with an error wrapping ErrMetadataUnavailable; callers exclude the entry
// and continue.
package filter

import (
	"fmt"
	"time"

	"github.com/harrison/sift/internal/models"
)

// Predicate is a boolean test over an entry's metadata.
type Predicate interface {
	Name() string
	Matches(e *models.Entry) (bool, error)
}

// Spec holds unparsed filter specifications as supplied by configuration.
type Spec struct {
	Sizes         []string // Each "<+|-><NUM><UNIT>"
	ChangedWithin string   // Newer-than reference, empty when unset
	ChangedBefore string   // Older-than reference, empty when unset
	Owner         string   // "[!]user[:[!]group]", empty when unset
	XAttrs        []string // Each "name" or "name=value"
}

// IsEmpty reports whether no filter is configured.
func (s Spec) IsEmpty() bool {
	return len(s.Sizes) == 0 && s.ChangedWithin == "" && s.ChangedBefore == "" &&
		s.Owner == "" && len(s.XAttrs) == 0
}

// Set is the conjunction of all configured predicates.
type Set struct {
	predicates []Predicate
}

// NewSet creates a Set from already parsed predicates.
func NewSet(predicates ...Predicate) *Set {
	return &Set{predicates: predicates}
}

// Build parses every specification in spec, failing on the first malformed
// one or on a filter the platform cannot evaluate. Relative times resolve
// against now.
func Build(spec Spec, now time.Time, caps Capabilities) (*Set, error) {
	if spec.Owner != "" {
		if err := caps.Require(CapOwner); err != nil {
			return nil, err
		}
	}
	if len(spec.XAttrs) > 0 {
		if err := caps.Require(CapExtendedAttributes); err != nil {
			return nil, err
		}
	}

	set := &Set{}
	for _, s := range spec.Sizes {
		f, err := ParseSize(s)
		if err != nil {
			return nil, err
		}
		set.predicates = append(set.predicates, f)
	}
	if spec.ChangedWithin != "" {
		f, err := ParseTime(NewerThan, spec.ChangedWithin, now)
		if err != nil {
			return nil, err
		}
		set.predicates = append(set.predicates, f)
	}
	if spec.ChangedBefore != "" {
		f, err := ParseTime(OlderThan, spec.ChangedBefore, now)
		if err != nil {
			return nil, err
		}
		set.predicates = append(set.predicates, f)
	}
	if spec.Owner != "" {
		f, err := ParseOwner(spec.Owner)
		if err != nil {
			return nil, err
		}
		set.predicates = append(set.predicates, f)
	}
	for _, s := range spec.XAttrs {
		f, err := ParseXAttr(s)
		if err != nil {
			return nil, err
		}
		set.predicates = append(set.predicates, f)
	}
	return set, nil
}

// Len returns the number of predicates.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.predicates)
}

// Matches evaluates predicates in order and stops at the first mismatch.
// A non-nil error always comes with false and is never fatal.
func (s *Set) Matches(e *models.Entry) (bool, error) {
	if s == nil {
		return true, nil
	}
	for _, p := range s.predicates {
		ok, err := p.Matches(e)
		if err != nil {
			return false, fmt.Errorf("%s filter: %w", p.Name(), err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

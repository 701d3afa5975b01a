package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harrison/sift/internal/models"
)

// TimeKind selects the direction of a TimeFilter comparison.
type TimeKind int

const (
	// NewerThan keeps entries modified at or after the reference.
	NewerThan TimeKind = iota
	// OlderThan keeps entries modified at or before the reference.
	OlderThan
)

// String returns the flag-style name of the kind.
func (k TimeKind) String() string {
	if k == OlderThan {
		return "changed-before"
	}
	return "changed-within"
}

// TimeFilter matches entries by modification time against a reference instant.
type TimeFilter struct {
	Kind      TimeKind
	Reference time.Time
}

// Absolute layouts interpreted in the local time zone.
var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a reference instant and tags it with kind.
func ParseTime(kind TimeKind, text string, now time.Time) (TimeFilter, error) {
	ref, err := ParseInstant(text, now)
	if err != nil {
		return TimeFilter{}, newParseError("time", text, err)
	}
	return TimeFilter{Kind: kind, Reference: ref}, nil
}

// ParseInstant resolves a duration relative to now ("10h", "2weeks"),
// an RFC 3339 timestamp, a local "YYYY-MM-DD[ HH:MM:SS]" or "@<unix seconds>".
// The result has second resolution.
func ParseInstant(text string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, ErrInvalidTime
	}

	if d, err := parseDuration(s); err == nil {
		return d.before(now).Truncate(time.Second), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Truncate(time.Second), nil
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	if rest, ok := strings.CutPrefix(s, "@"); ok {
		if secs, err := strconv.ParseInt(rest, 10, 64); err == nil {
			return time.Unix(secs, 0), nil
		}
	}

	return time.Time{}, ErrInvalidTime
}

// Name returns the filter kind.
func (f TimeFilter) Name() string {
	return "time"
}

// MatchesTime applies the comparison to a modification time.
func (f TimeFilter) MatchesTime(mtime time.Time) bool {
	if f.Kind == OlderThan {
		return !mtime.After(f.Reference)
	}
	return !mtime.Before(f.Reference)
}

// Matches reports whether the entry's modification time satisfies the filter.
func (f TimeFilter) Matches(e *models.Entry) (bool, error) {
	info, err := e.Metadata()
	if err != nil || info == nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMetadataUnavailable, e.Path, err)
	}
	return f.MatchesTime(info.ModTime()), nil
}

// String renders the reference as RFC 3339, which ParseInstant accepts.
func (f TimeFilter) String() string {
	return f.Reference.Format(time.RFC3339)
}

package walk

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/mattn/go-zglob"
)

// CaseMode controls case sensitivity of the search pattern.
type CaseMode int

const (
	// CaseSmart is insensitive unless the pattern has an uppercase letter.
	CaseSmart CaseMode = iota
	CaseSensitive
	CaseInsensitive
)

// matcher decides whether an entry's name (or full path) matches the pattern.
type matcher interface {
	match(s string) bool
}

type matchAll struct{}

func (matchAll) match(string) bool { return true }

type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) match(s string) bool {
	return m.re.MatchString(s)
}

type globMatcher struct {
	pattern string
	fold    bool
}

func (m globMatcher) match(s string) bool {
	if m.fold {
		s = strings.ToLower(s)
	}
	ok, err := zglob.Match(m.pattern, s)
	return err == nil && ok
}

func caseSensitive(pattern string, mode CaseMode) bool {
	switch mode {
	case CaseSensitive:
		return true
	case CaseInsensitive:
		return false
	}
	for _, r := range pattern {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func compileMatcher(opts Options) (matcher, error) {
	if opts.Pattern == "" {
		return matchAll{}, nil
	}
	sensitive := caseSensitive(opts.Pattern, opts.Case)

	if opts.Glob {
		pattern := opts.Pattern
		if !sensitive {
			pattern = strings.ToLower(pattern)
		}
		if _, err := zglob.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", opts.Pattern, err)
		}
		return globMatcher{pattern: pattern, fold: !sensitive}, nil
	}

	expr := opts.Pattern
	if opts.FixedStrings {
		expr = regexp.QuoteMeta(expr)
	}
	if !sensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", opts.Pattern, err)
	}
	return regexMatcher{re: re}, nil
}

// excludeSet holds --exclude globs. A glob without a separator matches any
// path component name; otherwise it matches the path relative to the root.
type excludeSet struct {
	byName []string
	byPath []string
}

func compileExcludes(globs []string) (excludeSet, error) {
	var set excludeSet
	for _, g := range globs {
		g = strings.TrimPrefix(g, "./")
		if _, err := zglob.Match(g, ""); err != nil {
			return set, fmt.Errorf("invalid exclude glob %q: %w", g, err)
		}
		if strings.Contains(strings.TrimSuffix(g, "/"), "/") {
			set.byPath = append(set.byPath, strings.TrimSuffix(g, "/"))
		} else {
			set.byName = append(set.byName, strings.TrimSuffix(g, "/"))
		}
	}
	return set, nil
}

func (s excludeSet) excluded(name, rel string) bool {
	for _, g := range s.byName {
		if ok, _ := zglob.Match(g, name); ok {
			return true
		}
	}
	for _, g := range s.byPath {
		if ok, _ := zglob.Match(g, rel); ok {
			return true
		}
	}
	return false
}

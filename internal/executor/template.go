package executor

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{(/?\.?|//)\}`)

// token is either literal text or a placeholder.
type token struct {
	text        string
	placeholder Placeholder
	literal     bool
}

// ArgTemplate is one argument of a command template.
type ArgTemplate struct {
	tokens []token
}

func compileArg(raw string) ArgTemplate {
	var arg ArgTemplate
	start := 0
	for _, loc := range placeholderPattern.FindAllStringIndex(raw, -1) {
		if loc[0] > start {
			arg.tokens = append(arg.tokens, token{text: raw[start:loc[0]], literal: true})
		}
		arg.tokens = append(arg.tokens, token{placeholder: placeholderTokens[raw[loc[0]:loc[1]]]})
		start = loc[1]
	}
	if start < len(raw) || len(arg.tokens) == 0 {
		arg.tokens = append(arg.tokens, token{text: raw[start:], literal: true})
	}
	return arg
}

// Placeholders returns the number of placeholder occurrences in the argument.
func (a ArgTemplate) Placeholders() int {
	n := 0
	for _, t := range a.tokens {
		if !t.literal {
			n++
		}
	}
	return n
}

// HasPlaceholder reports whether the argument substitutes any path.
func (a ArgTemplate) HasPlaceholder() bool {
	return a.Placeholders() > 0
}

// Generate renders the argument for path.
func (a ArgTemplate) Generate(path string) string {
	if len(a.tokens) == 1 {
		if a.tokens[0].literal {
			return a.tokens[0].text
		}
		return a.tokens[0].placeholder.Apply(path)
	}
	var sb strings.Builder
	for _, t := range a.tokens {
		if t.literal {
			sb.WriteString(t.text)
		} else {
			sb.WriteString(t.placeholder.Apply(path))
		}
	}
	return sb.String()
}

// String renders the argument with placeholder tokens in place.
func (a ArgTemplate) String() string {
	var sb strings.Builder
	for _, t := range a.tokens {
		if t.literal {
			sb.WriteString(t.text)
		} else {
			sb.WriteString(t.placeholder.Token())
		}
	}
	return sb.String()
}

// Template is a compiled command. The first argument is the executable.
// When no argument carries a placeholder, the full path is appended as a
// final argument at instantiation time.
type Template struct {
	args         []ArgTemplate
	placeholders int
}

// CompileTemplate parses raw command arguments into a Template. Batched
// templates accept at most one placeholder, outside the executable.
func CompileTemplate(args []string, batched bool) (*Template, error) {
	if len(args) == 0 || args[0] == "" {
		return nil, &TemplateError{Args: args, Err: ErrEmptyCommand}
	}

	t := &Template{args: make([]ArgTemplate, 0, len(args))}
	for _, raw := range args {
		arg := compileArg(raw)
		t.placeholders += arg.Placeholders()
		t.args = append(t.args, arg)
	}

	if batched {
		if t.args[0].HasPlaceholder() {
			return nil, &TemplateError{Args: args, Err: ErrPlaceholderExecutable}
		}
		if t.placeholders > 1 {
			return nil, &TemplateError{Args: args, Err: ErrMultiplePlaceholders}
		}
	}
	return t, nil
}

// HasPlaceholder reports whether any argument carries an explicit placeholder.
func (t *Template) HasPlaceholder() bool {
	return t.placeholders > 0
}

// Instantiate builds the argument vector for a single path.
func (t *Template) Instantiate(path string) []string {
	argv := make([]string, 0, len(t.args)+1)
	for _, arg := range t.args {
		argv = append(argv, arg.Generate(path))
	}
	if !t.HasPlaceholder() {
		argv = append(argv, path)
	}
	return argv
}

// InstantiateBatch builds one argument vector for many paths. The placeholder
// argument expands into one argument per path, in order.
func (t *Template) InstantiateBatch(paths []string) []string {
	argv := make([]string, 0, len(t.args)+len(paths))
	for _, arg := range t.args {
		if !arg.HasPlaceholder() {
			argv = append(argv, arg.Generate(""))
			continue
		}
		for _, path := range paths {
			argv = append(argv, arg.Generate(path))
		}
	}
	if !t.HasPlaceholder() {
		argv = append(argv, paths...)
	}
	return argv
}

// fixedCost returns the command-line cost of the arguments that do not vary
// with the batch.
func (t *Template) fixedCost() int {
	cost := 0
	for _, arg := range t.args {
		if !arg.HasPlaceholder() {
			cost += argCost(arg.Generate(""))
		}
	}
	return cost
}

// pathCost returns the command-line cost one path adds to a batch.
func (t *Template) pathCost(path string) int {
	for _, arg := range t.args {
		if arg.HasPlaceholder() {
			return argCost(arg.Generate(path))
		}
	}
	return argCost(path)
}

func (t *Template) String() string {
	parts := make([]string, 0, len(t.args))
	for _, arg := range t.args {
		parts = append(parts, arg.String())
	}
	return strings.Join(parts, " ")
}

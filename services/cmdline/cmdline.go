// Package cmdline parses human-typed command lines such as
//
//	recent -limit 3 -verbose "some quoted text" -format:json
//
// into a command token, positional arguments and named options.
package cmdline

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/samber/mo"
)

// AmbiguityKind names a recoverable oddity found while parsing.
type AmbiguityKind string

const (
	AmbiguityUnterminatedQuote AmbiguityKind = "unterminated_quote"
	AmbiguityDuplicateOption   AmbiguityKind = "duplicate_option"
	AmbiguityEmptyOptionName   AmbiguityKind = "empty_option_name"
)

// Ambiguity records input that was parsed on a best-effort basis.
type Ambiguity struct {
	Kind  AmbiguityKind
	Token string
}

// Result is the immutable outcome of Analyze.
type Result struct {
	command     mo.Option[string]
	arguments   []string
	options     map[string]mo.Option[string]
	ambiguities []Ambiguity
}

type token struct {
	text   string
	quoted bool
}

// Analyze parses input. It never fails: whitespace-only input yields an empty Result and
// malformed input yields a best-effort Result with Ambiguities describing what was guessed.
func Analyze(input string) Result {
	result := Result{
		command: mo.None[string](),
		options: make(map[string]mo.Option[string]),
	}

	tokens, unterminated := tokenize(strings.TrimSpace(input))
	if unterminated {
		result.ambiguities = append(result.ambiguities, Ambiguity{
			Kind:  AmbiguityUnterminatedQuote,
			Token: tokens[len(tokens)-1].text,
		})
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if isOptionToken(tok) {
			name, inline, hasInline := strings.Cut(tok.text[1:], ":")
			value := mo.None[string]()
			switch {
			case hasInline:
				value = mo.Some(inline)
			case i+1 < len(tokens) && canBeValue(tokens[i+1]):
				value = mo.Some(tokens[i+1].text)
				i++
			}
			result.setOption(name, value, tok.text)
			continue
		}

		if !result.command.IsPresent() {
			result.command = mo.Some(tok.text)
			continue
		}
		result.arguments = append(result.arguments, tok.text)
	}

	return result
}

func (r *Result) setOption(name string, value mo.Option[string], raw string) {
	if name == "" {
		r.ambiguities = append(r.ambiguities, Ambiguity{Kind: AmbiguityEmptyOptionName, Token: raw})
	}
	if _, exists := r.options[name]; exists {
		r.ambiguities = append(r.ambiguities, Ambiguity{Kind: AmbiguityDuplicateOption, Token: raw})
	}
	r.options[name] = value
}

// tokenize splits on runs of unquoted whitespace. A token that starts with a double quote runs
// verbatim to the next double quote, or to the end of input when the quote is never closed.
func tokenize(input string) ([]token, bool) {
	var tokens []token
	runes := []rune(input)
	n := len(runes)

	for i := 0; i < n; {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}

		if runes[i] == '"' {
			j := i + 1
			for j < n && runes[j] != '"' {
				j++
			}
			tokens = append(tokens, token{text: string(runes[i+1 : j]), quoted: true})
			if j >= n {
				return tokens, true
			}
			i = j + 1
			continue
		}

		j := i
		for j < n && !unicode.IsSpace(runes[j]) {
			j++
		}
		tokens = append(tokens, token{text: string(runes[i:j])})
		i = j
	}

	return tokens, false
}

func isOptionToken(tok token) bool {
	return !tok.quoted && len(tok.text) > 1 && tok.text[0] == '-'
}

// canBeValue reports whether tok may be consumed as the external value of a preceding option.
// Dash-led tokens are options of their own and bracketed tokens are always positional.
func canBeValue(tok token) bool {
	if tok.quoted {
		return true
	}
	return !strings.HasPrefix(tok.text, "-") && !isBracketed(tok.text)
}

func isBracketed(s string) bool {
	return len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']'
}

// Command returns the first positional token, if any.
func (r Result) Command() mo.Option[string] {
	return r.command
}

// CommandIs reports whether the command token equals name.
func (r Result) CommandIs(name string) bool {
	cmd, ok := r.command.Get()
	return ok && cmd == name
}

// IsEmpty reports whether the input held no tokens at all.
func (r Result) IsEmpty() bool {
	return !r.command.IsPresent() && len(r.arguments) == 0 && len(r.options) == 0
}

// Arguments returns the positional arguments in input order.
func (r Result) Arguments() []string {
	return slices.Clone(r.arguments)
}

// Argument returns the positional argument at index, or None when out of range.
func (r Result) Argument(index int) mo.Option[string] {
	if index < 0 || index >= len(r.arguments) {
		return mo.None[string]()
	}
	return mo.Some(r.arguments[index])
}

// Options returns a copy of the option map. A None value means a boolean flag.
func (r Result) Options() map[string]mo.Option[string] {
	return maps.Clone(r.options)
}

// Option returns the option's value and whether the option was given at all.
func (r Result) Option(name string) (mo.Option[string], bool) {
	value, ok := r.options[name]
	return value, ok
}

// HasOption reports whether the option was given, with or without a value.
func (r Result) HasOption(name string) bool {
	_, ok := r.options[name]
	return ok
}

// Ambiguities lists the best-effort guesses made while parsing, in input order.
func (r Result) Ambiguities() []Ambiguity {
	return slices.Clone(r.ambiguities)
}

// Equal compares command, arguments and options. Ambiguities are ignored.
func (r Result) Equal(other Result) bool {
	return r.command == other.command &&
		slices.Equal(r.arguments, other.arguments) &&
		maps.Equal(r.options, other.options)
}

// String renders command, arguments, then options sorted by name. Valued options render as
// "-name value", except that the empty-named option and values holding a double quote use the
// inline "-name:value" form. The output re-parses to an equal Result, though spacing and
// quoting style of the original input are not preserved.
//
// There is no escape syntax, so a token holding both a double quote and whitespace cannot be
// rendered. Analyze never produces one: quoted tokens stop at the next double quote and
// unquoted tokens stop at whitespace.
func (r Result) String() string {
	var parts []string

	if cmd, ok := r.command.Get(); ok {
		parts = append(parts, quotePositional(cmd))
	}
	for _, arg := range r.arguments {
		parts = append(parts, quotePositional(arg))
	}
	for _, name := range slices.Sorted(maps.Keys(r.options)) {
		value, hasValue := r.options[name].Get()
		switch {
		case name == "" || (hasValue && strings.Contains(value, `"`)):
			parts = append(parts, "-"+name+":"+value)
		case hasValue:
			parts = append(parts, "-"+name, quoteValue(value))
		default:
			parts = append(parts, "-"+name)
		}
	}

	return strings.Join(parts, " ")
}

// A positional holding a double quote came from an unquoted token and is emitted raw.
func quotePositional(s string) string {
	if needsQuotes(s) && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return s
}

func quoteValue(s string) string {
	if needsQuotes(s) || isBracketed(s) {
		return `"` + s + `"`
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, `"`) {
		return true
	}
	return strings.ContainsFunc(s, func(r rune) bool {
		return r == ':' || unicode.IsSpace(r)
	})
}

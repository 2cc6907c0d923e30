package backend

import (
	"regexp"
	"strings"
)

// glob matches reference names against an fnmatch pattern without flags.
//
// fnmatch works on bytes, so the pattern and every name are widened to one
// rune per byte before matching. '?' then matches exactly one byte and
// multi-byte UTF-8 literals match themselves.
type glob struct {
	re *regexp.Regexp
}

// Match reports whether name matches the pattern.
func (g *glob) Match(name string) bool {
	return g.re.MatchString(widenBytes(name))
}

// widenBytes maps each byte of s to the rune of the same value.
func widenBytes(s string) string {
	runes := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		runes[i] = rune(s[i])
	}
	return string(runes)
}

// compileGlob translates an fnmatch pattern without flags into a glob.
// '*' and '?' also match '/', brackets support '!' and '^' negation and a
// backslash escapes the next character. An unterminated bracket is a literal.
func compileGlob(pattern string) (*glob, error) {
	var b strings.Builder
	b.WriteString("(?s)^")

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '\\':
			if i+1 < len(pattern) {
				i++
				b.WriteString(regexp.QuoteMeta(string(rune(pattern[i]))))
			} else {
				b.WriteString(`\\`)
			}
		case '[':
			end := bracketEnd(pattern, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(bracketClass(pattern[i+1 : end]))
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(rune(c))))
		}
	}

	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	return &glob{re: re}, nil
}

// bracketEnd returns the index of the ']' closing the class opened at start,
// or -1. A ']' right after the opening (or after negation) is literal.
func bracketEnd(pattern string, start int) int {
	i := start + 1
	if i < len(pattern) && (pattern[i] == '!' || pattern[i] == '^') {
		i++
	}
	if i < len(pattern) && pattern[i] == ']' {
		i++
	}
	for ; i < len(pattern); i++ {
		if pattern[i] == ']' {
			return i
		}
	}
	return -1
}

func bracketClass(body string) string {
	var b strings.Builder
	b.WriteString("[")
	if body != "" && (body[0] == '!' || body[0] == '^') {
		b.WriteString("^")
		body = body[1:]
	}
	for i := 0; i < len(body); i++ {
		switch c := body[i]; c {
		case '\\', '[', ']', '^':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteRune(rune(c))
		}
	}
	b.WriteString("]")
	return b.String()
}

package tenant

import (
	"context"
	"fmt"
	"strings"
)

// SplitStatements splits a SQL script into individual statements on
// terminating semicolons. Semicolons inside single-quoted strings, quoted
// identifiers, line comments, block comments, and dollar-quoted bodies do
// not split. Statements that contain nothing but whitespace or comments are
// dropped.
func SplitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
		dollarTag  string
	)

	const (
		statePlain = iota
		stateSingleQuote
		stateDoubleQuote
		stateLineComment
		stateBlockComment
		stateDollarQuote
	)
	state := statePlain
	blockDepth := 0

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		current.Reset()
		if stmt != "" && !commentOnly(stmt) {
			statements = append(statements, stmt)
		}
	}

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch state {
		case statePlain:
			switch {
			case c == ';':
				flush()
				continue
			case c == '\'':
				state = stateSingleQuote
			case c == '"':
				state = stateDoubleQuote
			case c == '-' && next == '-':
				state = stateLineComment
			case c == '/' && next == '*':
				state = stateBlockComment
				blockDepth = 1
				current.WriteRune(c)
				current.WriteRune(next)
				i++
				continue
			case c == '$':
				if tag, ok := dollarQuoteTag(runes[i:]); ok {
					state = stateDollarQuote
					dollarTag = tag
					current.WriteString(tag)
					i += len([]rune(tag)) - 1
					continue
				}
			}
		case stateSingleQuote:
			if c == '\'' {
				if next == '\'' {
					current.WriteRune(c)
					current.WriteRune(next)
					i++
					continue
				}
				state = statePlain
			}
		case stateDoubleQuote:
			if c == '"' {
				state = statePlain
			}
		case stateLineComment:
			if c == '\n' {
				state = statePlain
			}
		case stateBlockComment:
			if c == '/' && next == '*' {
				blockDepth++
				current.WriteRune(c)
				current.WriteRune(next)
				i++
				continue
			}
			if c == '*' && next == '/' {
				blockDepth--
				current.WriteRune(c)
				current.WriteRune(next)
				i++
				if blockDepth == 0 {
					state = statePlain
				}
				continue
			}
		case stateDollarQuote:
			if c == '$' && hasPrefixRunes(runes[i:], dollarTag) {
				current.WriteString(dollarTag)
				i += len([]rune(dollarTag)) - 1
				state = statePlain
				dollarTag = ""
				continue
			}
		}

		current.WriteRune(c)
	}

	flush()
	return statements
}

// applyScript executes each statement of the script in order, stopping at
// the first failure.
func applyScript(ctx context.Context, c conn, script string) error {
	statements := SplitStatements(script)
	for i, stmt := range statements {
		if err := c.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d/%d: %w", i+1, len(statements), err)
		}
	}
	return nil
}

// dollarQuoteTag reports whether the input starts a dollar-quote delimiter
// ($$ or $tag$) and returns the full delimiter.
func dollarQuoteTag(runes []rune) (string, bool) {
	if len(runes) < 2 || runes[0] != '$' {
		return "", false
	}
	for i := 1; i < len(runes); i++ {
		c := runes[i]
		if c == '$' {
			return string(runes[:i+1]), true
		}
		if !isTagRune(c) {
			return "", false
		}
	}
	return "", false
}

func isTagRune(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func hasPrefixRunes(runes []rune, prefix string) bool {
	p := []rune(prefix)
	if len(runes) < len(p) {
		return false
	}
	for i := range p {
		if runes[i] != p[i] {
			return false
		}
	}
	return true
}

// commentOnly reports whether a trimmed statement consists solely of
// comments.
func commentOnly(stmt string) bool {
	rest := strings.TrimSpace(stmt)
	for rest != "" {
		switch {
		case strings.HasPrefix(rest, "--"):
			idx := strings.IndexByte(rest, '\n')
			if idx == -1 {
				return true
			}
			rest = strings.TrimSpace(rest[idx+1:])
		case strings.HasPrefix(rest, "/*"):
			idx := strings.Index(rest, "*/")
			if idx == -1 {
				return true
			}
			rest = strings.TrimSpace(rest[idx+2:])
		default:
			return false
		}
	}
	return true
}

package shell

import (
	"strings"
	"unicode"
)

// Command is one line submitted to the shell.
//
// A Command built with Raw is sent exactly as given. A Command built with
// Tokens has each token escaped and the tokens joined by single spaces.
type Command struct {
	raw    string
	tokens []string
	isList bool
}

// Raw returns a pre-formatted command. No escaping is applied.
func Raw(line string) Command {
	return Command{raw: line}
}

// Tokens returns a command assembled from tokens.
func Tokens(tokens ...string) Command {
	return Command{tokens: append([]string(nil), tokens...), isList: true}
}

// String returns the line that is written to the shell.
func (c Command) String() string {
	if !c.isList {
		return c.raw
	}
	escaped := make([]string, len(c.tokens))
	for i, tok := range c.tokens {
		escaped[i] = EscapeToken(tok)
	}
	return strings.Join(escaped, " ")
}

// IsEmpty reports whether the command has nothing to run.
func (c Command) IsEmpty() bool {
	if c.isList {
		return len(c.tokens) == 0
	}
	return strings.TrimSpace(c.raw) == ""
}

// EscapeToken wraps tok in double quotes when it contains whitespace and no
// double quote. Tokens that already carry a quote are left alone, so
// '/p:Platform="Any CPU"' passes through unchanged.
func EscapeToken(tok string) string {
	if strings.ContainsRune(tok, '"') {
		return tok
	}
	if strings.IndexFunc(tok, unicode.IsSpace) < 0 {
		return tok
	}
	return `"` + tok + `"`
}

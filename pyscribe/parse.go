package pyscribe

import (
	"fmt"
	"strings"
)

// Parser extracts items from Python source text. The zero value is ready
// to use.
type Parser struct {
	// SkipValidation disables the triple-quote pre-pass. Unterminated
	// docstrings are then reported by the grammar itself.
	SkipValidation bool
}

// Parse runs a zero-value Parser over text.
func Parse(text string) ([]Item, error) {
	return Parser{}.Parse(text)
}

// ParseWithModule runs a zero-value Parser over text and stamps every item
// with module.
func ParseWithModule(text, module string) ([]LocatedItem, error) {
	return Parser{}.ParseWithModule(text, module)
}

// Parse validates text, matches it against the grammar and returns the
// items in document order. On failure no items are returned.
func (p Parser) Parse(text string) ([]Item, error) {
	if strings.TrimSpace(text) == "" {
		return nil, emptyContent()
	}

	lines := newLineIndex(text)
	if !p.SkipValidation {
		if err := validateDocstrings(text, lines); err != nil {
			return nil, err
		}
	}

	root, merr := match(text)
	if merr != nil {
		return nil, classify(text, lines, merr)
	}

	return buildItems(text, lines, root), nil
}

// ParseWithModule is Parse followed by Locate with an empty source.
func (p Parser) ParseWithModule(text, module string) ([]LocatedItem, error) {
	items, err := p.Parse(text)
	if err != nil {
		return nil, AddContext(err, CtxModule, module)
	}
	return Locate(items, module, ""), nil
}

// classify turns a grammar failure into an *Error. A failure that expected
// the closing docstring delimiter is reported against the opener's line.
func classify(src string, lines lineIndex, err *matchError) error {
	if err.expects(expDocstringClose) && err.open >= 0 {
		return unterminatedDocstring(lines.position(src, err.open).Line)
	}

	pos := lines.position(src, err.pos)
	diagnostic := fmt.Sprintf("%d:%d: expected %s", pos.Line, pos.Column, joinExpected(err.expected))
	return syntaxError(diagnostic, pos)
}

func joinExpected(names []string) string {
	switch len(names) {
	case 0:
		return "nothing"
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}

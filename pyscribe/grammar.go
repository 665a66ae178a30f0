package pyscribe

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule identifies the grammar production an Item was produced by.
type Rule int

const (
	FunctionDef Rule = iota
	ClassDef
	Docstring
	Import
)

var ruleNames = [...]string{
	FunctionDef: "FunctionDef",
	ClassDef:    "ClassDef",
	Docstring:   "Docstring",
	Import:      "Import",
}

// Rules returns every rule in declaration order.
func Rules() []Rule {
	return []Rule{FunctionDef, ClassDef, Docstring, Import}
}

// String returns the rule name, e.g. "FunctionDef".
func (r Rule) String() string {
	if r < 0 || int(r) >= len(ruleNames) {
		return fmt.Sprintf("Rule(%d)", int(r))
	}
	return ruleNames[r]
}

// MarshalText implements encoding.TextMarshaler.
func (r Rule) MarshalText() ([]byte, error) {
	if r < 0 || int(r) >= len(ruleNames) {
		return nil, fmt.Errorf("unknown rule %d", int(r))
	}
	return []byte(ruleNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rule) UnmarshalText(text []byte) error {
	for i, name := range ruleNames {
		if name == string(text) {
			*r = Rule(i)
			return nil
		}
	}
	return fmt.Errorf("unknown rule %q", text)
}

const tripleQuote = `"""`

// Names reported in the expected set of a matchError.
const (
	expFunctionDef    = "function_def"
	expClassDef       = "class_def"
	expDocstring      = "docstring"
	expImport         = "import_stmt"
	expAny            = "ANY"
	expDocstringClose = "docstring_close"
)

type nodeKind int

const (
	kindFile nodeKind = iota
	kindFunction
	kindClass
	kindDocstring
	kindImport
	kindDecorator
)

// rule maps leaf productions to their Rule. Container and scaffolding
// kinds report false.
func (k nodeKind) rule() (Rule, bool) {
	switch k {
	case kindFunction:
		return FunctionDef, true
	case kindClass:
		return ClassDef, true
	case kindDocstring:
		return Docstring, true
	case kindImport:
		return Import, true
	}
	return 0, false
}

// node is a span of the source recognized by a production.
type node struct {
	kind     nodeKind
	start    int
	end      int
	children []node
}

// matchError is the grammar's own failure: the offset where matching
// stopped and the productions that could have continued there.
type matchError struct {
	pos      int
	open     int // offset of the unclosed delimiter, -1 if not applicable
	expected []string
}

func (e *matchError) expects(name string) bool {
	for _, exp := range e.expected {
		if exp == name {
			return true
		}
	}
	return false
}

// grammar holds the text being matched. Productions take a byte offset and
// report the end of their match.
type grammar struct {
	src string
}

// match runs file = (function_def | class_def | docstring | import_stmt | ANY)*
// over src and returns the match tree.
func match(src string) (node, *matchError) {
	g := grammar{src: src}
	root := node{kind: kindFile, start: 0, end: len(src)}

	pos := 0
	for pos < len(src) {
		n, ok, err := g.production(pos)
		if err != nil {
			return node{}, err
		}
		if ok {
			root.children = append(root.children, n)
			pos = n.end
			continue
		}

		r, size := utf8.DecodeRuneInString(src[pos:])
		if r == utf8.RuneError && size <= 1 {
			return node{}, &matchError{
				pos:      pos,
				open:     -1,
				expected: []string{expFunctionDef, expClassDef, expDocstring, expImport, expAny},
			}
		}
		pos += size
	}

	return root, nil
}

// production tries the four productions at pos in priority order.
func (g *grammar) production(pos int) (node, bool, *matchError) {
	lineStart := g.atLineStart(pos)

	// Indentation only belongs to a production at the start of a line.
	if !lineStart && isIndent(g.src[pos]) {
		return node{}, false, nil
	}

	if n, ok := g.definition(pos, kindFunction); ok {
		return n, true, nil
	}
	if n, ok := g.definition(pos, kindClass); ok {
		return n, true, nil
	}
	if n, ok, err := g.docstring(pos); ok || err != nil {
		return n, ok, err
	}
	if lineStart {
		if n, ok := g.importStmt(pos); ok {
			return n, true, nil
		}
	}
	return node{}, false, nil
}

// definition matches function_def or class_def:
//
//	decorator* indent ("async" ws+)? "def" ws+ ident+ ws* "(" tail
//	decorator* indent "class" ws+ ident+ ws* ("(" | ":") tail
func (g *grammar) definition(pos int, kind nodeKind) (node, bool) {
	decorators, p := g.decorators(pos)
	if len(decorators) == 0 && !g.keywordAllowed(pos) {
		return node{}, false
	}

	p = g.indent(p)
	keyword := "class"
	if kind == kindFunction {
		keyword = "def"
		if q, ok := g.keyword(p, "async"); ok {
			p = q
		}
	}

	p, ok := g.keyword(p, keyword)
	if !ok {
		return node{}, false
	}

	nameEnd := g.identifier(p)
	if nameEnd == p {
		return node{}, false
	}
	p = g.spaces(nameEnd)
	if p >= len(g.src) {
		return node{}, false
	}

	switch c := g.src[p]; {
	case c == '(':
	case c == ':' && kind == kindClass:
	default:
		return node{}, false
	}

	end, ok := g.tail(p)
	if !ok {
		return node{}, false
	}
	return node{kind: kind, start: pos, end: end, children: decorators}, true
}

// decorators matches (indent "@" [^\n]* newline)* anchored at line starts.
func (g *grammar) decorators(pos int) ([]node, int) {
	var out []node
	p := pos
	for p < len(g.src) && g.atLineStart(p) {
		q := g.indent(p)
		if q >= len(g.src) || g.src[q] != '@' {
			break
		}
		nl := strings.IndexByte(g.src[q:], '\n')
		if nl < 0 {
			break
		}
		end := q + nl + 1
		out = append(out, node{kind: kindDecorator, start: p, end: end})
		p = end
	}
	if len(out) == 0 {
		return nil, pos
	}
	return out, p
}

// tail scans to the first ':' outside brackets, strings and comments and
// returns the offset just past it. A line break at depth zero ends the
// statement without a terminator and fails the tail.
func (g *grammar) tail(p int) (int, bool) {
	depth := 0
	for p < len(g.src) {
		switch c := g.src[p]; c {
		case ':':
			if depth == 0 {
				return p + 1, true
			}
		case '\n':
			if depth == 0 {
				return 0, false
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				return 0, false
			}
			depth--
		case '#':
			nl := strings.IndexByte(g.src[p:], '\n')
			if nl < 0 {
				return 0, false
			}
			p += nl
			continue
		case '"', '\'':
			end, ok := g.skipString(p)
			if !ok {
				return 0, false
			}
			p = end
			continue
		}
		p++
	}
	return 0, false
}

// skipString returns the offset just past the string literal opening at p.
func (g *grammar) skipString(p int) (int, bool) {
	quote := g.src[p]
	triple := strings.Repeat(string(quote), 3)
	if strings.HasPrefix(g.src[p:], triple) {
		idx := strings.Index(g.src[p+3:], triple)
		if idx < 0 {
			return 0, false
		}
		return p + 3 + idx + 3, true
	}

	for i := p + 1; i < len(g.src); i++ {
		switch g.src[i] {
		case '\\':
			i++
		case '\n':
			return 0, false
		case quote:
			return i + 1, true
		}
	}
	return 0, false
}

// docstring matches indent '"""' body '"""' with the body ending at the
// nearest closing delimiter. Once the opener is seen the production is
// committed and a missing closer is an error.
func (g *grammar) docstring(pos int) (node, bool, *matchError) {
	p := g.indent(pos)
	if !strings.HasPrefix(g.src[p:], tripleQuote) {
		return node{}, false, nil
	}

	body := p + len(tripleQuote)
	idx := strings.Index(g.src[body:], tripleQuote)
	if idx < 0 {
		return node{}, false, &matchError{
			pos:      len(g.src),
			open:     p,
			expected: []string{expDocstringClose},
		}
	}
	return node{kind: kindDocstring, start: pos, end: body + idx + len(tripleQuote)}, true, nil
}

// importStmt matches
//
//	indent ("import" rest | "from" ws+ module ws+ "import" rest) newline?
//
// and is only tried at line starts.
func (g *grammar) importStmt(pos int) (node, bool) {
	p := g.indent(pos)

	if q, ok := g.word(p, "import"); ok {
		end, ok := g.importRest(q)
		if !ok {
			return node{}, false
		}
		return node{kind: kindImport, start: pos, end: end}, true
	}

	q, ok := g.keyword(p, "from")
	if !ok {
		return node{}, false
	}
	moduleEnd := q
	for moduleEnd < len(g.src) {
		r, size := utf8.DecodeRuneInString(g.src[moduleEnd:])
		if r != '.' && !isIdentRune(r) {
			break
		}
		moduleEnd += size
	}
	if moduleEnd == q {
		return node{}, false
	}
	q = g.spaces(moduleEnd)
	if q == moduleEnd {
		return node{}, false
	}
	q, ok = g.word(q, "import")
	if !ok {
		return node{}, false
	}
	end, ok := g.importRest(q)
	if !ok {
		return node{}, false
	}
	return node{kind: kindImport, start: pos, end: end}, true
}

// importRest consumes the imported names through the end of the line. An
// open parenthesis continues the statement until it is closed; one that is
// never closed ends the statement at its first line. Parentheses inside
// comments and single-line string literals are not counted.
func (g *grammar) importRest(p int) (int, bool) {
	lineEnd := len(g.src)
	if nl := strings.IndexByte(g.src[p:], '\n'); nl >= 0 {
		lineEnd = p + nl + 1
	}

	depth := 0
	end := len(g.src)
	i := p
scan:
	for i < len(g.src) {
		switch c := g.src[i]; c {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case '\n':
			if depth == 0 {
				end = i + 1
				break scan
			}
		case '#':
			nl := strings.IndexByte(g.src[i:], '\n')
			if nl < 0 {
				break scan
			}
			i += nl
			continue
		case '"', '\'':
			if next, ok := g.skipString(i); ok && !strings.Contains(g.src[i:next], "\n") {
				i = next
				continue
			}
		}
		i++
	}
	if depth > 0 {
		end = lineEnd
	}

	if strings.TrimSpace(g.src[p:end]) == "" {
		return 0, false
	}
	return end, true
}

// keyword matches kw followed by at least one space or tab and returns the
// offset after the spacing.
func (g *grammar) keyword(p int, kw string) (int, bool) {
	if !strings.HasPrefix(g.src[p:], kw) {
		return p, false
	}
	q := p + len(kw)
	if q >= len(g.src) || !isIndent(g.src[q]) {
		return p, false
	}
	return g.spaces(q), true
}

// word matches kw when it is not followed by an identifier character.
func (g *grammar) word(p int, kw string) (int, bool) {
	if !strings.HasPrefix(g.src[p:], kw) {
		return p, false
	}
	q := p + len(kw)
	if q < len(g.src) {
		if r, _ := utf8.DecodeRuneInString(g.src[q:]); isIdentRune(r) {
			return p, false
		}
	}
	return g.spaces(q), true
}

func (g *grammar) identifier(p int) int {
	for p < len(g.src) {
		r, size := utf8.DecodeRuneInString(g.src[p:])
		if !isIdentRune(r) {
			break
		}
		p += size
	}
	return p
}

func (g *grammar) indent(p int) int {
	return g.spaces(p)
}

func (g *grammar) spaces(p int) int {
	for p < len(g.src) && isIndent(g.src[p]) {
		p++
	}
	return p
}

func (g *grammar) atLineStart(p int) bool {
	return p == 0 || g.src[p-1] == '\n'
}

// keywordAllowed reports whether a keyword production may start at p,
// i.e. p does not continue an identifier.
func (g *grammar) keywordAllowed(p int) bool {
	if p == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(g.src[:p])
	return !isIdentRune(r)
}

func isIndent(c byte) bool {
	return c == ' ' || c == '\t'
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

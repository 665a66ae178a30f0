package pyscribe

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Item is a single structural match in a source text.
type Item struct {
	Rule Rule `json:"rule"`
	// Name is set for functions, classes and imports when it can be derived.
	Name *string `json:"name,omitempty"`
	// Signature is the trimmed header line for functions and classes, and
	// the statement's first line for imports.
	Signature *string `json:"signature,omitempty"`
	// Docstring is the normalized body. Only set for the Docstring rule.
	Docstring *string `json:"docstring,omitempty"`
	// Content is the whole matched text with surrounding whitespace removed.
	Content string `json:"content"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

// LocatedItem is an Item stamped with the module and source it came from.
type LocatedItem struct {
	Item
	Module *string `json:"module,omitempty"`
	Source *string `json:"source,omitempty"`
}

// Locate stamps every item with module and source. Empty strings leave the
// corresponding field unset.
func Locate(items []Item, module, source string) []LocatedItem {
	out := make([]LocatedItem, len(items))
	for i, item := range items {
		out[i] = LocatedItem{
			Item:   item,
			Module: optional(module),
			Source: optional(source),
		}
	}
	return out
}

// position is a 1-based line and column. Columns count runes.
type position struct {
	Line   int
	Column int
}

// lineIndex holds the byte offset of every line start.
type lineIndex []int

func newLineIndex(src string) lineIndex {
	idx := lineIndex{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (li lineIndex) position(src string, off int) position {
	line := sort.Search(len(li), func(i int) bool { return li[i] > off })
	start := li[line-1]
	return position{
		Line:   line,
		Column: utf8.RuneCountInString(src[start:off]) + 1,
	}
}

// buildItems walks the match tree depth first and emits one Item per leaf
// production in document order.
func buildItems(src string, lines lineIndex, root node) []Item {
	items := []Item{}

	var walk func(n node)
	walk = func(n node) {
		rule, ok := n.kind.rule()
		if !ok {
			for _, child := range n.children {
				walk(child)
			}
			return
		}
		items = append(items, buildItem(rule, src[n.start:n.end], lines.position(src, n.start)))
	}
	walk(root)

	return items
}

func buildItem(rule Rule, raw string, pos position) Item {
	item := Item{
		Rule:    rule,
		Content: strings.TrimSpace(raw),
		Line:    pos.Line,
		Column:  pos.Column,
	}

	switch rule {
	case FunctionDef, ClassDef:
		sig := signature(rule, raw)
		item.Signature = optional(sig)
		item.Name = optional(definitionName(rule, sig))
	case Docstring:
		doc := normalizeDocstring(docstringBody(item.Content))
		item.Docstring = &doc
	case Import:
		first := strings.TrimSpace(firstLine(raw))
		item.Name = optional(first)
		item.Signature = optional(first)
	}

	return item
}

// signature returns the first line that starts with the rule's keyword,
// skipping decorators. Without one it falls back to the first line.
func signature(rule Rule, raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if _, ok := stripDefinitionKeyword(rule, line); ok {
			return line
		}
	}
	return strings.TrimSpace(firstLine(raw))
}

// definitionName takes the text after the keyword up to the parameter list
// (functions) or the bases or colon (classes).
func definitionName(rule Rule, sig string) string {
	rest, ok := stripDefinitionKeyword(rule, sig)
	if !ok {
		return ""
	}

	stops := "("
	if rule == ClassDef {
		stops = "(: \t"
	}
	if i := strings.IndexAny(rest, stops); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}

func stripDefinitionKeyword(rule Rule, line string) (string, bool) {
	if rule == ClassDef {
		return stripKeyword(line, "class")
	}
	if rest, ok := stripKeyword(line, "async"); ok {
		line = rest
	}
	return stripKeyword(line, "def")
}

func stripKeyword(line, kw string) (string, bool) {
	if !strings.HasPrefix(line, kw) || len(line) == len(kw) || !isIndent(line[len(kw)]) {
		return "", false
	}
	return strings.TrimLeft(line[len(kw):], " \t"), true
}

func docstringBody(content string) string {
	open := strings.Index(content, tripleQuote)
	closing := strings.LastIndex(content, tripleQuote)
	if open < 0 || closing < open+len(tripleQuote) {
		return ""
	}
	return content[open+len(tripleQuote) : closing]
}

// normalizeDocstring trims the first line and removes the common
// indentation of the remaining non-blank lines.
func normalizeDocstring(body string) string {
	body = strings.Trim(body, "\r\n")
	if strings.TrimSpace(body) == "" {
		return ""
	}
	if !strings.Contains(body, "\n") {
		return strings.TrimSpace(body)
	}

	lines := strings.Split(body, "\n")
	indent := -1
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		width := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || width < indent {
			indent = width
		}
	}

	out := make([]string, len(lines))
	out[0] = strings.TrimSpace(lines[0])
	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out[i+1] = strings.TrimRight(line[indent:], " \t\r")
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

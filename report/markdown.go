// Package report renders parse results as terminal tables and Markdown.
package report

import (
	"fmt"
	"strings"

	"github.com/arjunmahishi/pyscribe/pyscribe"
)

// Totals are the counts across every module.
type Totals struct {
	Modules    int `json:"modules"`
	Functions  int `json:"functions"`
	Classes    int `json:"classes"`
	Docstrings int `json:"docstrings"`
	Imports    int `json:"imports"`
}

// Summarize sums the reports.
func Summarize(reports pyscribe.Reports) Totals {
	t := Totals{Modules: len(reports)}
	for _, r := range reports {
		t.Functions += len(r.Functions)
		t.Classes += len(r.Classes)
		t.Docstrings += r.Docstrings
		t.Imports += r.Imports
	}
	return t
}

// Sections are the deterministic Markdown blocks derived from the reports.
type Sections struct {
	Overview          string
	APITable          string
	DocstringCoverage string
}

// GenerateSections renders the overview, API reference and docstring
// coverage sections.
func GenerateSections(reports pyscribe.Reports) Sections {
	return Sections{
		Overview:          renderOverview(reports),
		APITable:          renderAPITables(reports),
		DocstringCoverage: renderDocstringCoverage(reports),
	}
}

func renderOverview(reports pyscribe.Reports) string {
	t := Summarize(reports)
	return fmt.Sprintf("## Overview\n"+
		"Detected **%d** module(s), **%d** function(s), **%d** class(es), and **%d** docstring(s). "+
		"The code references **%d** imports.\n\n",
		t.Modules, t.Functions, t.Classes, t.Docstrings, t.Imports)
}

func renderAPITables(reports pyscribe.Reports) string {
	if len(reports) == 0 {
		return "## API Reference\n_No modules discovered._\n"
	}

	var b strings.Builder
	b.WriteString("## API Reference\n")
	for _, r := range reports {
		fmt.Fprintf(&b, "\n### Module `%s`\n", r.Module)
		if r.Symbols() == 0 {
			b.WriteString("_No functions or classes detected in this module._\n")
			continue
		}
		if len(r.Functions) > 0 {
			writeSymbolTable(&b, "Function", r.Functions)
		}
		if len(r.Classes) > 0 {
			if len(r.Functions) > 0 {
				b.WriteByte('\n')
			}
			writeSymbolTable(&b, "Class", r.Classes)
		}
	}
	return b.String()
}

func writeSymbolTable(b *strings.Builder, kind string, entries []pyscribe.SymbolEntry) {
	fmt.Fprintf(b, "| %s | Signature | Location |\n", kind)
	b.WriteString("| --- | --- | --- |\n")
	for _, e := range entries {
		fmt.Fprintf(b, "| `%s` | `%s` | `%s` |\n", e.Name, e.Signature, location(e))
	}
}

func renderDocstringCoverage(reports pyscribe.Reports) string {
	if len(reports) == 0 {
		return "## Docstring Coverage\n_No modules discovered._\n"
	}

	var b strings.Builder
	b.WriteString("## Docstring Coverage\n\n")
	b.WriteString("| Module | Functions | Classes | Docstrings | Coverage |\n")
	b.WriteString("| --- | ---:| ---:| ---:| ---:|\n")
	for _, r := range reports {
		fmt.Fprintf(&b, "| `%s` | %d | %d | %d | %s |\n",
			r.Module, len(r.Functions), len(r.Classes), r.Docstrings, Coverage(r))
	}
	return b.String()
}

// Coverage is min(docstrings, symbols)/symbols as a whole percentage, or
// "N/A" for a module without functions or classes.
func Coverage(r pyscribe.ModuleReport) string {
	symbols := r.Symbols()
	if symbols == 0 {
		return "N/A"
	}
	docs := min(r.Docstrings, symbols)
	return fmt.Sprintf("%.0f%%", float64(docs)/float64(symbols)*100)
}

func location(e pyscribe.SymbolEntry) string {
	if e.Source != nil {
		return fmt.Sprintf("%s:%d", *e.Source, e.Line)
	}
	return fmt.Sprintf("line %d", e.Line)
}

// Document is a complete Markdown file.
type Document struct {
	Title    string
	Summary  string
	Sections Sections
}

// Markdown joins the title, the optional summary and the sections.
func (d Document) Markdown() string {
	var b strings.Builder
	if d.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", d.Title)
	}
	if s := strings.TrimSpace(d.Summary); s != "" {
		fmt.Fprintf(&b, "## Summary\n%s\n\n", s)
	}
	b.WriteString(d.Sections.Overview)
	b.WriteString(d.Sections.APITable)
	b.WriteByte('\n')
	b.WriteString(d.Sections.DocstringCoverage)
	return b.String()
}

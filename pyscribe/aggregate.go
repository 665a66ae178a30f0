package pyscribe

import (
	"sort"
	"strings"
)

const (
	anonymousName = "<anonymous>"
	unknownModule = "<unknown>"
)

// SymbolEntry is a function or class listed in a ModuleReport.
type SymbolEntry struct {
	Name      string  `json:"name"`
	Signature string  `json:"signature"`
	Line      int     `json:"line"`
	Source    *string `json:"source,omitempty"`
}

// ModuleReport summarizes the items of one module.
type ModuleReport struct {
	Module     string        `json:"module"`
	Functions  []SymbolEntry `json:"functions"`
	Classes    []SymbolEntry `json:"classes"`
	Docstrings int           `json:"docstrings"`
	Imports    int           `json:"imports"`
}

// Symbols is the number of functions and classes in the module.
func (m ModuleReport) Symbols() int {
	return len(m.Functions) + len(m.Classes)
}

// Reports is ordered by module key.
type Reports []ModuleReport

// Get returns the report for module.
func (r Reports) Get(module string) (ModuleReport, bool) {
	i := sort.Search(len(r), func(i int) bool { return r[i].Module >= module })
	if i < len(r) && r[i].Module == module {
		return r[i], true
	}
	return ModuleReport{}, false
}

// Aggregate groups items by module (falling back to source, then
// "<unknown>"). Entries within a module are sorted by lower-cased name,
// ties keeping encounter order.
func Aggregate(items []LocatedItem) Reports {
	byModule := make(map[string]*ModuleReport)

	for _, item := range items {
		key := moduleKey(item)
		report, ok := byModule[key]
		if !ok {
			report = &ModuleReport{
				Module:    key,
				Functions: []SymbolEntry{},
				Classes:   []SymbolEntry{},
			}
			byModule[key] = report
		}

		switch item.Rule {
		case FunctionDef:
			report.Functions = append(report.Functions, symbolEntry(item))
		case ClassDef:
			report.Classes = append(report.Classes, symbolEntry(item))
		case Docstring:
			report.Docstrings++
		case Import:
			report.Imports++
		}
	}

	reports := make(Reports, 0, len(byModule))
	for _, report := range byModule {
		sortEntries(report.Functions)
		sortEntries(report.Classes)
		reports = append(reports, *report)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Module < reports[j].Module
	})

	return reports
}

func moduleKey(item LocatedItem) string {
	if item.Module != nil {
		return *item.Module
	}
	if item.Source != nil {
		return *item.Source
	}
	return unknownModule
}

func symbolEntry(item LocatedItem) SymbolEntry {
	entry := SymbolEntry{
		Name:      anonymousName,
		Signature: item.Content,
		Line:      item.Line,
		Source:    item.Source,
	}
	if item.Name != nil {
		entry.Name = *item.Name
	}
	if item.Signature != nil {
		entry.Signature = *item.Signature
	}
	return entry
}

func sortEntries(entries []SymbolEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
}

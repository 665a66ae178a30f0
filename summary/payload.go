package summary

import (
	"encoding/json"
	"fmt"

	"github.com/arjunmahishi/pyscribe/pyscribe"
	"github.com/arjunmahishi/pyscribe/report"
)

// Payload is the projection of the reports sent to the model.
type Payload struct {
	Summary   report.Totals   `json:"summary"`
	Modules   []ModulePayload `json:"modules"`
	Coverage  []CoverageRow   `json:"docstring_coverage"`
	Truncated bool            `json:"truncated,omitempty"`
}

// ModulePayload lists the functions and classes of one module.
type ModulePayload struct {
	Module    string   `json:"module"`
	Functions []Symbol `json:"functions"`
	Classes   []Symbol `json:"classes"`
}

// Symbol is a function or class entry of a module.
type Symbol struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Line      int    `json:"line"`
}

// CoverageRow is the docstring coverage of one module.
type CoverageRow struct {
	Module     string `json:"module"`
	Symbols    int    `json:"symbols"`
	Docstrings int    `json:"docstrings"`
	Coverage   string `json:"coverage"`
}

// NewPayload projects every report.
func NewPayload(reports pyscribe.Reports) *Payload {
	p := &Payload{
		Summary:  report.Summarize(reports),
		Modules:  make([]ModulePayload, 0, len(reports)),
		Coverage: make([]CoverageRow, 0, len(reports)),
	}
	for _, r := range reports {
		p.Modules = append(p.Modules, ModulePayload{
			Module:    r.Module,
			Functions: symbols(r.Functions),
			Classes:   symbols(r.Classes),
		})
		p.Coverage = append(p.Coverage, CoverageRow{
			Module:     r.Module,
			Symbols:    r.Symbols(),
			Docstrings: r.Docstrings,
			Coverage:   report.Coverage(r),
		})
	}
	return p
}

func symbols(entries []pyscribe.SymbolEntry) []Symbol {
	out := make([]Symbol, len(entries))
	for i, e := range entries {
		out[i] = Symbol{Name: e.Name, Signature: e.Signature, Line: e.Line}
	}
	return out
}

// BuildPayload marshals the projection of reports, dropping trailing symbol
// entries and then trailing modules until it fits in maxBytes. Summary
// counts always describe the full input. A maxBytes of 0 disables the cap.
func BuildPayload(reports pyscribe.Reports, maxBytes int) (json.RawMessage, error) {
	p := NewPayload(reports)

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	if maxBytes <= 0 || len(data) <= maxBytes || p.removable() == 0 {
		return data, nil
	}

	// The size shrinks with every removal, so search for the fewest
	// removals that fit. When nothing fits, everything is removed.
	lo, hi := 1, p.removable()
	for lo < hi {
		mid := lo + (hi-lo)/2
		d, err := json.Marshal(p.truncate(mid))
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		if len(d) <= maxBytes {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	data, err = json.Marshal(p.truncate(lo))
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return data, nil
}

// removable is the number of entries truncate can drop: every symbol, then
// every module.
func (p *Payload) removable() int {
	n := len(p.Modules)
	for _, m := range p.Modules {
		n += len(m.Functions) + len(m.Classes)
	}
	return n
}

// truncate returns a copy of p with n entries dropped from the end. Symbols
// go first, classes before functions, starting at the last module; modules
// and their coverage rows go once no symbols are left.
func (p *Payload) truncate(n int) *Payload {
	out := *p
	out.Truncated = n > 0
	out.Modules = make([]ModulePayload, len(p.Modules))
	copy(out.Modules, p.Modules)

	for i := len(out.Modules) - 1; i >= 0 && n > 0; i-- {
		m := &out.Modules[i]
		drop := min(n, len(m.Classes))
		m.Classes = m.Classes[:len(m.Classes)-drop]
		n -= drop

		drop = min(n, len(m.Functions))
		m.Functions = m.Functions[:len(m.Functions)-drop]
		n -= drop
	}

	keep := max(len(out.Modules)-n, 0)
	out.Modules = out.Modules[:keep]
	out.Coverage = p.Coverage[:keep]
	return &out
}

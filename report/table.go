package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/arjunmahishi/pyscribe/pyscribe"
)

const maxDetail = 72

// WriteTable prints one aligned row per item.
func WriteTable(w io.Writer, items []pyscribe.LocatedItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tLOCATION\tMODULE\tNAME\tDETAIL")

	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			item.Rule,
			itemLocation(item),
			deref(item.Module, "-"),
			itemName(item),
			itemDetail(item),
		)
	}
	return tw.Flush()
}

// WriteErrors prints one line per failed file.
func WriteErrors(w io.Writer, failed []pyscribe.FileResult) error {
	if len(failed) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FAILED\tERROR")
	for _, f := range failed {
		fmt.Fprintf(tw, "%s\t%s\n", f.Path, f.Err)
	}
	return tw.Flush()
}

func itemLocation(item pyscribe.LocatedItem) string {
	pos := fmt.Sprintf("%d:%d", item.Line, item.Column)
	if item.Source != nil {
		return *item.Source + ":" + pos
	}
	return pos
}

func itemName(item pyscribe.LocatedItem) string {
	if item.Rule == pyscribe.Import {
		return "-"
	}
	return deref(item.Name, "-")
}

func itemDetail(item pyscribe.LocatedItem) string {
	var detail string
	switch {
	case item.Docstring != nil:
		detail = firstLine(*item.Docstring)
	case item.Signature != nil:
		detail = *item.Signature
	default:
		detail = firstLine(item.Content)
	}
	return truncate(detail, maxDetail)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

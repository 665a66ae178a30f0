package pyscribe

import "strings"

// validateDocstrings pairs triple-quote delimiters left to right and fails
// on the first opener without a closer. It runs before matching so the
// error names the opening line even when the grammar would have failed
// somewhere else first.
func validateDocstrings(src string, lines lineIndex) error {
	pos := 0
	for {
		open := strings.Index(src[pos:], tripleQuote)
		if open < 0 {
			return nil
		}
		open += pos

		body := open + len(tripleQuote)
		closing := strings.Index(src[body:], tripleQuote)
		if closing < 0 {
			return unterminatedDocstring(lines.position(src, open).Line)
		}
		pos = body + closing + len(tripleQuote)
	}
}

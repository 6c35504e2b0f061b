package main

import "strings"

// Fable programs ship embedded in markdown documents as fenced blocks tagged
// "fable". Extraction concatenates the blocks in document order and keeps a
// line map so lexer, parser, and runtime fault positions can be reported
// against the document the author is actually editing.

// LineMap maps 1-based script lines to 1-based document lines.
type LineMap []int

// DocLine translates a script line; out-of-range lines are returned as-is.
func (m LineMap) DocLine(scriptLine int) int {
	if scriptLine < 1 || scriptLine > len(m) {
		return scriptLine
	}
	return m[scriptLine-1]
}

// ExtractFable pulls every ```fable block out of doc. The returned source is
// the blocks joined by newlines; the map records each line's origin.
func ExtractFable(doc string) (string, LineMap) {
	var (
		code    []string
		lineMap LineMap
		inBlock bool
	)

	for i, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)
		if inBlock {
			if strings.HasPrefix(trimmed, "```") {
				inBlock = false
				continue
			}
			code = append(code, line)
			lineMap = append(lineMap, i+1)
			continue
		}
		if trimmed == "```fable" || strings.HasPrefix(trimmed, "```fable ") {
			inBlock = true
		}
	}

	return strings.Join(code, "\n"), lineMap
}

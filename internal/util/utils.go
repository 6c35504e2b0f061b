package util

import (
	"bytes"
	"fmt"
	"strings"
)

// ContextLines renders the offending source line with up to two lines of
// leading context and a caret under the reported column.
func ContextLines(src string, line, col int) string {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}

	var result bytes.Buffer

	start := line - 2
	if start < 1 {
		start = 1
	}

	for i := start; i <= line; i++ {
		content := lines[i-1]
		if i < line {
			fmt.Fprintf(&result, "     %3d | %s\n", i, content)
			continue
		}
		margin := fmt.Sprintf("  >  %3d | ", i)
		fmt.Fprintf(&result, "%s%s\n", margin, content)

		span := margin + content
		if col >= 1 && col <= len(content)+1 {
			span = margin + content[:col-1]
		}
		result.WriteString(blankVisible(span) + "^")
	}

	return result.String()
}

// blankVisible replaces visible characters with spaces while preserving tabs
// so the caret lines up under tabbed source.
func blankVisible(s string) string {
	var buf bytes.Buffer
	for _, c := range s {
		if c == '\t' {
			buf.WriteRune('\t')
		} else {
			buf.WriteRune(' ')
		}
	}
	return buf.String()
}

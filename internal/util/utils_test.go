package util

import (
	"strings"
	"testing"
)

func TestContextLines(t *testing.T) {
	src := "var a = 1\nvar b = 2\nvar c = !\nvar d = 4"

	out := ContextLines(src, 3, 9)
	if !strings.Contains(out, ">    3 | var c = !") {
		t.Errorf("missing marked error line:\n%s", out)
	}
	if !strings.Contains(out, "  1 | var a = 1") || !strings.Contains(out, "  2 | var b = 2") {
		t.Errorf("missing context lines:\n%s", out)
	}
	if strings.Contains(out, "var d") {
		t.Errorf("should not include lines after the error:\n%s", out)
	}
	if !strings.HasSuffix(out, "^") {
		t.Errorf("should end with a caret:\n%s", out)
	}

	// caret column: margin is 11 bytes, col 9 points at the '!'
	lines := strings.Split(out, "\n")
	caret := lines[len(lines)-1]
	if len(caret) != 11+8+1 {
		t.Errorf("caret at byte %d, want %d:\n%s", len(caret), 11+8+1, out)
	}
}

func TestContextLinesFirstLine(t *testing.T) {
	out := ContextLines("oops", 1, 1)
	if !strings.Contains(out, ">    1 | oops") {
		t.Errorf("missing error line:\n%s", out)
	}
}

func TestContextLinesOutOfRange(t *testing.T) {
	if out := ContextLines("var a = 1", 5, 1); out != "" {
		t.Errorf("out-of-range line should render nothing, got %q", out)
	}
	if out := ContextLines("var a = 1", 0, 1); out != "" {
		t.Errorf("line 0 should render nothing, got %q", out)
	}
}

package main

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	if got := renderTable(nil, [][]string{{"x"}}, nil); got != "" {
		t.Fatalf("expected empty output without headers, got %q", got)
	}

	out := renderTable(
		[]string{"Stage", "Count"},
		[][]string{{"Applied", "3"}, {"Shortlisted"}, {"Interview Passed", "1", "extra"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	for _, want := range []string{"STAGE", "COUNT", "Applied", "Shortlisted", "Interview Passed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if strings.Contains(out, "extra") {
		t.Fatalf("expected extra cells to be dropped:\n%s", out)
	}
	if lines := strings.Split(out, "\n"); len(lines) != 7 {
		t.Fatalf("expected 7 lines (border, header, rule, 3 rows, border), got %d:\n%s", len(lines), out)
	}
}

package app

import (
	"strings"
	"testing"
)

func TestFormatDBQueryForTrace(t *testing.T) {
	t.Parallel()

	got := formatDBQueryForTrace("\n\tSELECT id\n\tFROM clubs\n\tWHERE name_key = $1\n")
	want := "SELECT id FROM clubs WHERE name_key = $1"
	if got != want {
		t.Fatalf("unexpected formatting:\nwant: %s\ngot:  %s", want, got)
	}
}

func TestFormatDBQueryForTrace_TruncatesLongQueries(t *testing.T) {
	t.Parallel()

	long := "SELECT " + strings.Repeat("col, ", 200) + "id FROM t"
	got := formatDBQueryForTrace(long)

	if len(got) != maxTracedQueryLength+3 {
		t.Fatalf("unexpected length %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated query should end in ellipsis: %q", got[len(got)-10:])
	}
}

func TestFormatDBQueryForTrace_Empty(t *testing.T) {
	t.Parallel()

	if got := formatDBQueryForTrace("   "); got != "" {
		t.Fatalf("blank query should stay empty, got %q", got)
	}
}

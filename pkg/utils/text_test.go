package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestNormalizeSpace(t *testing.T) {
	if got := NormalizeSpace("  PIPE   6\"  SCH40 "); got != "PIPE 6\" SCH40" {
		t.Errorf("got %q", got)
	}
	if got := NormalizeSpace("\t\n"); got != "" {
		t.Errorf("whitespace-only input: got %q", got)
	}
}

func TestCountLines(t *testing.T) {
	if got := CountLines("a\n\nb\nc\n"); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
	if got := CountLines(""); got != 0 {
		t.Errorf("empty input: got %d", got)
	}
}

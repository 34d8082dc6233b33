package channel

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitTextShortTextIsSingleChunk(t *testing.T) {
	t.Parallel()

	got := SplitText("  hello  ", 10, false)
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("unexpected chunks: %q", got)
	}
	if got := SplitText("   ", 10, false); got != nil {
		t.Fatalf("expected nil for blank text, got %q", got)
	}
}

func TestSplitTextPacksLines(t *testing.T) {
	t.Parallel()

	got := SplitText("aaaa\nbbbb\ncccc", 9, false)
	if len(got) != 2 || got[0] != "aaaa\nbbbb" || got[1] != "cccc" {
		t.Fatalf("unexpected chunks: %q", got)
	}
}

func TestSplitTextCutsLongLines(t *testing.T) {
	t.Parallel()

	line := strings.Repeat("é", 25)
	got := SplitText(line, 10, false)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	for _, chunk := range got {
		if utf8.RuneCountInString(chunk) > 10 {
			t.Fatalf("chunk exceeds limit: %q", chunk)
		}
	}
}

func TestSplitTextMarkdownKeepsParagraphs(t *testing.T) {
	t.Parallel()

	text := "para one\n\npara two\n\n" + strings.Repeat("x", 12)
	got := SplitText(text, 20, true)
	if len(got) != 2 || got[0] != "para one\n\npara two" || got[1] != strings.Repeat("x", 12) {
		t.Fatalf("unexpected chunks: %q", got)
	}
}

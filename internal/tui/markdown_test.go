package tui

import (
	"strings"
	"testing"
)

func TestMarkdownRenderKeepsText(t *testing.T) {
	r := NewMarkdownRenderer(NewTheme())

	out := r.Render("# Title\n\nSome **bold** text and a [link](https://example.com).", 80)
	for _, want := range []string{"Title", "bold", "link", "https://example.com"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<h1") || strings.Contains(out, "<strong>") {
		t.Fatalf("raw html leaked into output:\n%s", out)
	}
}

func TestMarkdownRenderCodeBlock(t *testing.T) {
	r := NewMarkdownRenderer(NewTheme())

	out := r.Render("```go\nfmt.Println(\"hi\")\n```", 80)
	if !strings.Contains(out, "Println") {
		t.Fatalf("code content lost:\n%s", out)
	}
	if strings.Contains(out, "\x00fence") {
		t.Fatalf("code block placeholder not substituted:\n%s", out)
	}
	if strings.Contains(out, "<pre>") || strings.Contains(out, "<code") {
		t.Fatalf("raw html leaked into output:\n%s", out)
	}
}

func TestHighlightCodeFallsBackToPlain(t *testing.T) {
	r := NewMarkdownRenderer(NewTheme())

	out := r.HighlightCode("just words", "")
	if !strings.Contains(out, "just words") {
		t.Fatalf("plain fallback lost content: %q", out)
	}
}

func TestMarkdownRenderLists(t *testing.T) {
	r := NewMarkdownRenderer(NewTheme())

	out := r.Render("- first\n- second\n\n1. one\n2. two", 80)
	for _, want := range []string{"first", "second", "one", "two"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<li>") {
		t.Fatalf("raw html leaked into output:\n%s", out)
	}
}

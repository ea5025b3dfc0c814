package tui

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	reCodeBlock  = regexp.MustCompile(`(?s)<pre><code(?: class="language-([a-zA-Z0-9]+)")?>(.*?)</code></pre>`)
	reInlineCode = regexp.MustCompile(`<code>([^<]+)</code>`)
	reHeading    = regexp.MustCompile(`(?s)<h([1-3]) id="[^"]*">(.*?)</h[1-3]>`)
	reStrong     = regexp.MustCompile(`<strong>(.*?)</strong>`)
	reEm         = regexp.MustCompile(`<em>(.*?)</em>`)
	reLink       = regexp.MustCompile(`<a href="([^"]*)">(.*?)</a>`)
	reBlockquote = regexp.MustCompile(`(?s)<blockquote>(.*?)</blockquote>`)
	reList       = regexp.MustCompile(`(?s)<(ul|ol)>(.*?)</(?:ul|ol)>`)
	reListItem   = regexp.MustCompile(`<li>(.*?)</li>`)
	reAnyTag     = regexp.MustCompile(`<[^>]+>`)
	reBlankRuns  = regexp.MustCompile(`\n{3,}`)
)

var htmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#x27;", "'",
	"&#x60;", "`",
	"&nbsp;", " ",
	"&hellip;", "...",
)

// MarkdownRenderer turns model replies into styled terminal text for
// the chat viewport. Goldmark produces HTML, which is then rewritten
// with the active theme's styles; code fences go through chroma. The
// workspace file view reuses the chroma path via HighlightCode.
type MarkdownRenderer struct {
	md        goldmark.Markdown
	theme     Theme
	formatter chroma.Formatter
	chromaSty *chroma.Style
}

func NewMarkdownRenderer(theme Theme) *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
	)
	return &MarkdownRenderer{
		md:        md,
		theme:     theme,
		formatter: formatters.Get("terminal256"),
		chromaSty: styles.Get("dracula"),
	}
}

// Render converts markdown to terminal output wrapped to width.
func (r *MarkdownRenderer) Render(content string, width int) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return r.restyle(buf.String(), width)
}

// restyle rewrites goldmark's HTML into themed terminal text. Code
// blocks are pulled out first and restored at the end so no later rule
// touches highlighted code.
func (r *MarkdownRenderer) restyle(doc string, width int) string {
	t := r.theme

	var fences []string
	doc = reCodeBlock.ReplaceAllStringFunc(doc, func(m string) string {
		sub := reCodeBlock.FindStringSubmatch(m)
		if len(sub) < 3 {
			return m
		}
		code := htmlEntities.Replace(sub[2])
		boxW := width - 8
		if boxW < 20 {
			boxW = 20
		}
		box := t.CodeBlock.Width(boxW).Render(r.HighlightCode(code, sub[1]))
		fences = append(fences, box)
		return fmt.Sprintf("\n\x00fence%d\x00\n", len(fences)-1)
	})

	doc = reInlineCode.ReplaceAllStringFunc(doc, func(m string) string {
		sub := reInlineCode.FindStringSubmatch(m)
		if len(sub) < 2 {
			return m
		}
		return t.InlineCode.Render(htmlEntities.Replace(sub[1]))
	})

	doc = reHeading.ReplaceAllStringFunc(doc, func(m string) string {
		sub := reHeading.FindStringSubmatch(m)
		if len(sub) < 3 {
			return m
		}
		text := reAnyTag.ReplaceAllString(sub[2], "")
		style := t.Heading
		if sub[1] == "1" {
			style = style.BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).BorderForeground(t.Border)
		}
		return style.Width(width-4).Render(text) + "\n"
	})

	doc = reStrong.ReplaceAllStringFunc(doc, func(m string) string {
		sub := reStrong.FindStringSubmatch(m)
		if len(sub) < 2 {
			return m
		}
		return lipgloss.NewStyle().Bold(true).Render(sub[1])
	})
	doc = reEm.ReplaceAllStringFunc(doc, func(m string) string {
		sub := reEm.FindStringSubmatch(m)
		if len(sub) < 2 {
			return m
		}
		return lipgloss.NewStyle().Italic(true).Render(sub[1])
	})

	doc = reLink.ReplaceAllStringFunc(doc, func(m string) string {
		sub := reLink.FindStringSubmatch(m)
		if len(sub) < 3 {
			return m
		}
		return t.Link.Render(sub[2] + " (" + sub[1] + ")")
	})

	doc = reBlockquote.ReplaceAllStringFunc(doc, func(m string) string {
		sub := reBlockquote.FindStringSubmatch(m)
		if len(sub) < 2 {
			return m
		}
		quote := reAnyTag.ReplaceAllString(strings.TrimSpace(sub[1]), "")
		return t.Quote.Width(width-4).Render(quote) + "\n"
	})

	doc = reList.ReplaceAllStringFunc(doc, func(m string) string {
		sub := reList.FindStringSubmatch(m)
		if len(sub) < 3 {
			return m
		}
		ordered := sub[1] == "ol"
		var b strings.Builder
		for i, item := range reListItem.FindAllStringSubmatch(sub[2], -1) {
			if len(item) < 2 {
				continue
			}
			marker := "  • "
			if ordered {
				marker = fmt.Sprintf("  %d. ", i+1)
			}
			b.WriteString(t.ListMarker.Render(marker))
			b.WriteString(reAnyTag.ReplaceAllString(item[1], ""))
			b.WriteString("\n")
		}
		return b.String()
	})

	doc = strings.NewReplacer(
		"<p>", "", "</p>", "\n",
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
	).Replace(doc)

	doc = reAnyTag.ReplaceAllString(doc, "")
	doc = htmlEntities.Replace(doc)
	doc = reBlankRuns.ReplaceAllString(doc, "\n\n")

	// Restored last so tag stripping cannot eat markup inside
	// highlighted code (an HTML fence, say).
	for i, fence := range fences {
		doc = strings.ReplaceAll(doc, fmt.Sprintf("\x00fence%d\x00", i), fence)
	}
	return strings.TrimSpace(doc)
}

// HighlightCode renders a code snippet with chroma's terminal256
// formatter. Unknown or empty language tags fall back to content
// analysis, then to plain text.
func (r *MarkdownRenderer) HighlightCode(code, lang string) string {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.chromaSty, it); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

package app

import (
	"strings"
	"testing"
)

func modelMsg(text string) Message {
	return Message{ID: "m", Role: RoleModel, Text: text}
}

func TestExtractFiles(t *testing.T) {
	text := "Here is your project:\n\n" +
		"### File: index.html\n```html\n<h1>Hi</h1>\n```\n\n" +
		"### File: src/app.js\n```js\nconsole.log(1);\n```\n" +
		"Some trailing prose."

	files := ExtractFiles([]Message{modelMsg(text)})
	if len(files) != 2 {
		t.Fatalf("extracted %d files, want 2: %v", len(files), files)
	}
	if got := files["index.html"]; got.Content != "<h1>Hi</h1>\n" || got.Language != "html" {
		t.Fatalf("index.html = %+v", got)
	}
	if got := files["src/app.js"]; got.Content != "console.log(1);\n" || got.Language != "js" {
		t.Fatalf("src/app.js = %+v", got)
	}
}

func TestExtractFilesDefaultsLanguage(t *testing.T) {
	files := ExtractFiles([]Message{modelMsg("### File: notes.txt\n```\nplain\n```")})
	if got := files["notes.txt"]; got.Language != "text" {
		t.Fatalf("language = %q, want text", got.Language)
	}
}

func TestExtractFilesIgnoresUserMessages(t *testing.T) {
	msg := Message{ID: "u", Role: RoleUser, Text: "### File: evil.sh\n```sh\nrm -rf /\n```"}
	if files := ExtractFiles([]Message{msg}); len(files) != 0 {
		t.Fatalf("user message should not yield files: %v", files)
	}
}

func TestExtractFilesLatestVersionWins(t *testing.T) {
	msgs := []Message{
		modelMsg("### File: a.txt\n```\nv1\n```"),
		modelMsg("### File: a.txt\n```\nv2\n```"),
	}
	files := ExtractFiles(msgs)
	if got := files["a.txt"].Content; got != "v2\n" {
		t.Fatalf("content = %q, want latest", got)
	}
}

func TestExtractFilesIgnoresPlainCodeBlocks(t *testing.T) {
	files := ExtractFiles([]Message{modelMsg("Example:\n```go\nfunc main() {}\n```")})
	if len(files) != 0 {
		t.Fatalf("plain fenced block should not extract: %v", files)
	}
}

func TestWorkspaceSyncIdempotent(t *testing.T) {
	w := NewWorkspace()
	msgs := []Message{modelMsg("### File: a.txt\n```\nhello\n```")}

	if !w.Sync(msgs) {
		t.Fatal("first sync should report a change")
	}
	if w.Sync(msgs) {
		t.Fatal("re-syncing identical messages should be a no-op")
	}
	if w.Len() != 1 {
		t.Fatalf("len = %d", w.Len())
	}
}

func TestWorkspacePreservesUserDeletion(t *testing.T) {
	w := NewWorkspace()
	msgs := []Message{modelMsg("### File: a.txt\n```\nhello\n```")}
	w.Sync(msgs)

	w.Delete("a.txt")
	w.Sync(msgs)
	if _, ok := w.File("a.txt"); ok {
		t.Fatal("unchanged extraction resurrected a deleted file")
	}

	// A changed generation legitimately brings the path back.
	w.Sync([]Message{modelMsg("### File: a.txt\n```\nchanged\n```")})
	got, ok := w.File("a.txt")
	if !ok || got.Content != "changed\n" {
		t.Fatalf("changed extraction should reappear, got %+v ok=%v", got, ok)
	}
}

func TestWorkspacePreservesUserRename(t *testing.T) {
	w := NewWorkspace()
	msgs := []Message{modelMsg("### File: src/a.txt\n```\nhello\n```")}
	w.Sync(msgs)

	w.Rename("src/a.txt", "b.txt")
	w.Sync(msgs)

	if _, ok := w.File("src/a.txt"); ok {
		t.Fatal("rename undone by unchanged extraction")
	}
	if got, ok := w.File("src/b.txt"); !ok || got.Content != "hello\n" {
		t.Fatalf("renamed file lost: %+v ok=%v", got, ok)
	}
}

func TestWorkspaceRenameFolderMovesSubtree(t *testing.T) {
	w := NewWorkspace()
	w.Sync([]Message{modelMsg(
		"### File: src/a.txt\n```\na\n```\n" +
			"### File: src/deep/b.txt\n```\nb\n```\n" +
			"### File: other.txt\n```\no\n```")})

	w.Rename("src", "lib")

	for _, want := range []string{"lib/a.txt", "lib/deep/b.txt", "other.txt"} {
		if _, ok := w.File(want); !ok {
			t.Fatalf("missing %q after folder rename; have %v", want, w.Paths())
		}
	}
	if _, ok := w.File("src/a.txt"); ok {
		t.Fatal("old path survived folder rename")
	}
}

func TestWorkspaceDeleteFolderRemovesSubtree(t *testing.T) {
	w := NewWorkspace()
	w.Sync([]Message{modelMsg(
		"### File: src/a.txt\n```\na\n```\n" +
			"### File: src/deep/b.txt\n```\nb\n```\n" +
			"### File: keep.txt\n```\nk\n```")})

	w.Delete("src")
	if got := w.Paths(); len(got) != 1 || got[0] != "keep.txt" {
		t.Fatalf("paths after folder delete = %v", got)
	}
}

func TestWorkspaceTreeOrder(t *testing.T) {
	w := NewWorkspace()
	w.Sync([]Message{modelMsg(
		"### File: zz.txt\n```\nz\n```\n" +
			"### File: src/main.go\n```go\npackage main\n```\n" +
			"### File: assets/logo.svg\n```\n<svg/>\n```")})

	tree := w.Tree()
	var rows []string
	for _, n := range tree {
		kind := "file"
		if n.IsDir {
			kind = "dir"
		}
		rows = append(rows, kind+":"+n.Path)
	}
	want := []string{"dir:assets", "file:assets/logo.svg", "dir:src", "file:src/main.go", "file:zz.txt"}
	if strings.Join(rows, ",") != strings.Join(want, ",") {
		t.Fatalf("tree = %v, want %v", rows, want)
	}
}

func TestWorkspacePreviewInlinesAssets(t *testing.T) {
	w := NewWorkspace()
	w.Sync([]Message{modelMsg(
		"### File: index.html\n```html\n<html><head><link rel=\"stylesheet\" href=\"./style.css\"></head>" +
			"<body><script src=\"app.js\"></script></body></html>\n```\n" +
			"### File: style.css\n```css\nbody { color: red; }\n```\n" +
			"### File: app.js\n```js\nconsole.log('hi');\n```")})

	html, ok := w.Preview()
	if !ok {
		t.Fatal("expected previewable content")
	}
	if strings.Contains(html, "<link") || strings.Contains(html, "src=") {
		t.Fatalf("references not inlined: %s", html)
	}
	if !strings.Contains(html, "body { color: red; }") {
		t.Fatal("stylesheet not inlined")
	}
	if !strings.Contains(html, "console.log('hi');") {
		t.Fatal("script not inlined")
	}
}

func TestWorkspacePreviewRequiresIndex(t *testing.T) {
	w := NewWorkspace()
	w.Sync([]Message{modelMsg("### File: main.go\n```go\npackage main\n```")})
	if _, ok := w.Preview(); ok {
		t.Fatal("no index.html should mean no preview")
	}
}

func TestWorkspaceReset(t *testing.T) {
	w := NewWorkspace()
	msgs := []Message{modelMsg("### File: a.txt\n```\nhello\n```")}
	w.Sync(msgs)
	w.Reset()
	if w.Len() != 0 {
		t.Fatal("reset left files behind")
	}
	if !w.Sync(msgs) {
		t.Fatal("after reset the extraction memory should be clear too")
	}
}

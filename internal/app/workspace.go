package app

import (
	"regexp"
	"sort"
	"strings"
)

// FileData is one virtual file extracted from a model reply.
type FileData struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

// fileBlockRe matches the structured code block contract the Creatore
// instruction enforces:
//
//	### File: path/to/filename.ext
//	```language
//	code
//	```
var fileBlockRe = regexp.MustCompile("(?s)(?:^|\n)###\\s+File:\\s+([^\n]+)\\s*```(\\w+)?\n(.*?)```")

// ExtractFiles parses every model message for structured file blocks.
// Later occurrences of the same path win, so the map always reflects
// the newest generation of each file.
func ExtractFiles(messages []Message) map[string]FileData {
	out := map[string]FileData{}
	for _, msg := range messages {
		if msg.Role != RoleModel {
			continue
		}
		for _, m := range fileBlockRe.FindAllStringSubmatch(msg.Text, -1) {
			path := strings.TrimSpace(m[1])
			if path == "" {
				continue
			}
			lang := m[2]
			if lang == "" {
				lang = "text"
			}
			out[path] = FileData{Content: m[3], Language: lang}
		}
	}
	return out
}

// MergeExtraction folds a fresh extraction into the working file set.
// prev is the extraction result of the previous pass; a path is written
// only when it is new or its extracted content changed since then.
// Unchanged paths are left alone, which is what preserves user renames
// and deletions, and extraction never removes anything.
func MergeExtraction(current, prev, extracted map[string]FileData) (map[string]FileData, bool) {
	next := make(map[string]FileData, len(current))
	for k, v := range current {
		next[k] = v
	}
	changed := false
	for path, file := range extracted {
		old, seen := prev[path]
		if !seen || old.Content != file.Content {
			next[path] = file
			changed = true
		}
	}
	return next, changed
}

// Workspace is the virtual file tree built from a session's structured
// code blocks, plus the user's local edits to it (renames, deletions).
type Workspace struct {
	files map[string]FileData
	prev  map[string]FileData
}

func NewWorkspace() *Workspace {
	return &Workspace{
		files: map[string]FileData{},
		prev:  map[string]FileData{},
	}
}

// Sync re-extracts files from the transcript and merges them in.
// Returns whether the file set changed.
func (w *Workspace) Sync(messages []Message) bool {
	extracted := ExtractFiles(messages)
	next, changed := MergeExtraction(w.files, w.prev, extracted)
	w.files = next
	w.prev = extracted
	return changed
}

// Reset drops all files and the extraction memory. Used when switching
// sessions.
func (w *Workspace) Reset() {
	w.files = map[string]FileData{}
	w.prev = map[string]FileData{}
}

// File returns the file at path.
func (w *Workspace) File(path string) (FileData, bool) {
	f, ok := w.files[path]
	return f, ok
}

// Len reports how many files the workspace holds.
func (w *Workspace) Len() int { return len(w.files) }

// Paths returns all file paths in lexical order.
func (w *Workspace) Paths() []string {
	out := make([]string, 0, len(w.files))
	for k := range w.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Delete removes a file, or a whole folder subtree when path names a
// folder.
func (w *Workspace) Delete(path string) {
	delete(w.files, path)
	prefix := path + "/"
	for k := range w.files {
		if strings.HasPrefix(k, prefix) {
			delete(w.files, k)
		}
	}
}

// Rename gives the file or folder at oldPath a new leaf name, moving a
// folder's entire subtree. An empty or unchanged name is a no-op.
func (w *Workspace) Rename(oldPath, newName string) {
	newName = strings.TrimSpace(newName)
	leaf := oldPath
	if i := strings.LastIndex(oldPath, "/"); i >= 0 {
		leaf = oldPath[i+1:]
	}
	if newName == "" || newName == leaf {
		return
	}

	newPath := newName
	if i := strings.LastIndex(oldPath, "/"); i >= 0 {
		newPath = oldPath[:i] + "/" + newName
	}

	if f, ok := w.files[oldPath]; ok {
		delete(w.files, oldPath)
		w.files[newPath] = f
	}

	prefix := oldPath + "/"
	for k := range w.files {
		if strings.HasPrefix(k, prefix) {
			f := w.files[k]
			delete(w.files, k)
			w.files[newPath+k[len(oldPath):]] = f
		}
	}
}

// TreeNode is one row of the rendered file tree.
type TreeNode struct {
	Name  string
	Path  string
	Depth int
	IsDir bool
}

// Tree flattens the file set into display order: depth first, folders
// before files at each level, names sorted within each group.
func (w *Workspace) Tree() []TreeNode {
	type entry struct {
		name     string
		isDir    bool
		children map[string]*entry
	}
	root := &entry{children: map[string]*entry{}}

	for path := range w.files {
		parts := strings.Split(path, "/")
		cur := root
		for i, part := range parts {
			child, ok := cur.children[part]
			if !ok {
				child = &entry{name: part, isDir: i < len(parts)-1, children: map[string]*entry{}}
				cur.children[part] = child
			}
			cur = child
		}
	}

	var out []TreeNode
	var walk func(e *entry, prefix string, depth int)
	walk = func(e *entry, prefix string, depth int) {
		kids := make([]*entry, 0, len(e.children))
		for _, c := range e.children {
			kids = append(kids, c)
		}
		sort.Slice(kids, func(i, j int) bool {
			if kids[i].isDir != kids[j].isDir {
				return kids[i].isDir
			}
			return kids[i].name < kids[j].name
		})
		for _, c := range kids {
			path := c.name
			if prefix != "" {
				path = prefix + "/" + c.name
			}
			out = append(out, TreeNode{Name: c.name, Path: path, Depth: depth, IsDir: c.isDir})
			walk(c, path, depth+1)
		}
	}
	walk(root, "", 0)
	return out
}

// Preview bundles the workspace into a standalone HTML document: the
// first index.html found, with references to sibling stylesheets and
// scripts inlined. Returns false when there is nothing previewable.
func (w *Workspace) Preview() (string, bool) {
	indexPath := ""
	for _, p := range w.Paths() {
		if strings.HasSuffix(p, "index.html") {
			indexPath = p
			break
		}
	}
	if indexPath == "" {
		return "", false
	}

	html := w.files[indexPath].Content
	for path, file := range w.files {
		if path == indexPath {
			continue
		}
		filename := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			filename = path[i+1:]
		}
		quoted := regexp.QuoteMeta(filename)

		if strings.HasSuffix(path, ".css") {
			re := regexp.MustCompile(`<link[^>]+href=["'](\./)?` + quoted + `["'][^>]*>`)
			html = re.ReplaceAllLiteralString(html, "<style>\n"+file.Content+"\n</style>")
		}
		if strings.HasSuffix(path, ".js") {
			re := regexp.MustCompile(`<script[^>]+src=["'](\./)?` + quoted + `["'][^>]*>\s*</script>`)
			html = re.ReplaceAllLiteralString(html, "<script>\n"+file.Content+"\n</script>")
		}
	}
	return html, true
}

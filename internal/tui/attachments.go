package tui

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"hynix-cli/internal/app"
)

// pendingAttachment is an image staged in the input area, shown as a
// chip until the message is sent.
type pendingAttachment struct {
	att   app.Attachment
	label string
}

func (m *MainModel) hasAttachments() bool {
	return len(m.attachments) > 0
}

func (m *MainModel) clearAttachments() {
	m.attachments = nil
	m.nextImageIndex = 1
}

// takeAttachments drains the staged chips into message attachments.
func (m *MainModel) takeAttachments() []app.Attachment {
	if len(m.attachments) == 0 {
		return nil
	}
	out := make([]app.Attachment, 0, len(m.attachments))
	for _, p := range m.attachments {
		out = append(out, p.att)
	}
	m.clearAttachments()
	return out
}

func (m *MainModel) addImageAttachment(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	idx := m.nextImageIndex
	if idx < 1 {
		idx = 1
	}
	m.nextImageIndex = idx + 1

	m.attachments = append(m.attachments, pendingAttachment{
		att: app.Attachment{
			MimeType: mimeForImage(path),
			Data:     base64.StdEncoding.EncodeToString(data),
			Name:     filepath.Base(path),
		},
		label: fmt.Sprintf("[Image %d] %s", idx, filepath.Base(path)),
	})
	return nil
}

func mimeForImage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	default:
		return "image/png"
	}
}

func (m *MainModel) renderChips() string {
	if len(m.attachments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.attachments))
	for _, p := range m.attachments {
		parts = append(parts, m.theme.Chip.Render(p.label))
	}
	return strings.Join(parts, " ")
}

// tryConsumePasteAsAttachment intercepts pasted image paths (drag+drop
// into most terminals pastes the path) and stages them as attachments
// instead of inserting the path text.
func (m *MainModel) tryConsumePasteAsAttachment(pasted string) bool {
	pasted = normalizeNewlines(pasted)
	if strings.TrimSpace(pasted) == "" {
		return false
	}

	paths := extractPastedImagePaths(pasted)
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		if err := m.addImageAttachment(p); err != nil {
			m.status = "attach failed: " + err.Error()
		}
	}
	return true
}

func normalizeNewlines(s string) string {
	if strings.Contains(s, "\r") {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	return s
}

func extractPastedImagePaths(pasted string) []string {
	tokens := splitShellLikeFields(pasted)
	if len(tokens) == 0 {
		return nil
	}

	paths := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		p, ok := normalizePastedPath(tok)
		if !ok || strings.TrimSpace(p) == "" {
			return nil
		}
		if !isExistingImageFile(p) {
			return nil
		}
		paths = append(paths, p)
	}
	return paths
}

func normalizePastedPath(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	// Common terminals emit file:// URIs on drag+drop.
	if strings.HasPrefix(token, "file://") {
		u, err := url.Parse(token)
		if err != nil {
			return "", false
		}
		path := u.Path
		if path == "" && u.Opaque != "" {
			path = u.Opaque
		}
		if path == "" {
			return "", false
		}
		if decoded, err := url.PathUnescape(path); err == nil {
			path = decoded
		}
		token = path
	}

	if strings.HasPrefix(token, "~/") || token == "~" {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			if token == "~" {
				token = home
			} else {
				token = filepath.Join(home, token[2:])
			}
		}
	}

	return filepath.Clean(token), true
}

func isExistingImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp":
	default:
		return false
	}

	st, err := os.Stat(path)
	if err != nil {
		return false
	}
	return st.Mode().IsRegular()
}

func splitShellLikeFields(s string) []string {
	s = strings.TrimSpace(normalizeNewlines(s))
	if s == "" {
		return nil
	}

	var out []string
	var b strings.Builder

	inSingle := false
	inDouble := false
	escaped := false

	flush := func() {
		if b.Len() == 0 {
			return
		}
		out = append(out, b.String())
		b.Reset()
	}

	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' && !inSingle {
			escaped = true
			continue
		}
		if r == '\'' && !inDouble {
			inSingle = !inSingle
			continue
		}
		if r == '"' && !inSingle {
			inDouble = !inDouble
			continue
		}
		if unicode.IsSpace(r) && !inSingle && !inDouble {
			flush()
			continue
		}
		b.WriteRune(r)
	}

	if escaped {
		// Keep a dangling backslash literal.
		b.WriteRune('\\')
	}
	flush()

	return out
}

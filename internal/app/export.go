package app

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportFormat selects the transcript serialization.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportText ExportFormat = "text"
)

// ParseExportFormat maps user input to a format. Defaults to text.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return ExportText, nil
	case "json":
		return ExportJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (want text or json)", s)
}

// ExportSession serializes one conversation transcript.
func ExportSession(sess ChatSession, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportJSON:
		return json.MarshalIndent(sess, "", "  ")
	case ExportText:
		return []byte(exportText(sess)), nil
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

func exportText(sess ChatSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", sess.Title)
	fmt.Fprintf(&b, "Model: %s\n", sess.ModelID)
	fmt.Fprintf(&b, "Created: %s\n\n", sess.CreatedAt.Format("2006-01-02 15:04"))

	for _, msg := range sess.Messages {
		speaker := "You"
		if msg.Role == RoleModel {
			speaker = sess.ModelID
		}
		fmt.Fprintf(&b, "[%s] %s:\n%s\n", msg.Timestamp.Format("15:04"), speaker, msg.Text)
		for _, att := range msg.Attachments {
			fmt.Fprintf(&b, "(attachment: %s, %s)\n", att.Name, att.MimeType)
		}
		b.WriteString("\n")
	}
	return b.String()
}

package tui

import (
	"strings"

	"hynix-cli/internal/app"
)

// sidebarRow is one rendered line of the session list: either a section
// header or a selectable session.
type sidebarRow struct {
	Header    string
	SessionID string
	Title     string
	Pinned    bool
}

// buildSidebarRows groups sessions into Pinned and History sections,
// preserving the store's pinned-first, newest-first order.
func buildSidebarRows(sessions []app.ChatSession) []sidebarRow {
	var pinned, history []app.ChatSession
	for _, s := range sessions {
		if s.IsPinned {
			pinned = append(pinned, s)
		} else {
			history = append(history, s)
		}
	}

	var rows []sidebarRow
	if len(pinned) > 0 {
		rows = append(rows, sidebarRow{Header: "Pinned"})
		for _, s := range pinned {
			rows = append(rows, sidebarRow{SessionID: s.ID, Title: s.Title, Pinned: true})
		}
	}
	if len(history) > 0 {
		rows = append(rows, sidebarRow{Header: "History"})
		for _, s := range history {
			rows = append(rows, sidebarRow{SessionID: s.ID, Title: s.Title})
		}
	}
	return rows
}

// sessionRowIndex finds the row for a session id, or the first
// selectable row when the id is absent. Returns -1 when there are no
// selectable rows.
func sessionRowIndex(rows []sidebarRow, id string) int {
	first := -1
	for i, r := range rows {
		if r.Header != "" {
			continue
		}
		if first < 0 {
			first = i
		}
		if r.SessionID == id {
			return i
		}
	}
	return first
}

// nextSessionRow steps the selection over header rows in the given
// direction.
func nextSessionRow(rows []sidebarRow, from, delta int) int {
	i := from + delta
	for i >= 0 && i < len(rows) {
		if rows[i].Header == "" {
			return i
		}
		i += delta
	}
	return from
}

func (m *MainModel) renderSidebar(width, height int) string {
	focused := m.focus == focusSidebar
	box := m.theme.Pane
	title := m.theme.PaneTitle.Render("Chats")
	if focused {
		box = m.theme.PaneFocused
		title = m.theme.PaneTitleF.Render("Chats")
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	if m.searching || m.search != "" {
		q := m.search
		if m.searching {
			q += "▏"
		}
		b.WriteString(m.theme.TopBarMeta.Render("/" + q))
		b.WriteString("\n")
	}

	inner := width - 4
	if inner < 8 {
		inner = 8
	}
	visible := height - 4
	if visible < 1 {
		visible = 1
	}

	rows := m.sidebarRows
	start := 0
	if m.sidebarSel >= visible {
		start = m.sidebarSel - visible + 1
	}
	end := start + visible
	if end > len(rows) {
		end = len(rows)
	}

	for i := start; i < end; i++ {
		r := rows[i]
		if r.Header != "" {
			b.WriteString(m.theme.SidebarSection.Render(strings.ToUpper(r.Header)))
			b.WriteString("\n")
			continue
		}

		label := truncateRunes(oneLine(r.Title), inner-3)
		marker := "  "
		if r.Pinned {
			marker = m.theme.SidebarPin.Render("★ ")
		}
		line := marker + label
		if i == m.sidebarSel && focused {
			b.WriteString(m.theme.SidebarSel.Render("> " + line))
		} else if r.SessionID == m.app.Store.CurrentID() {
			b.WriteString(m.theme.SidebarSel.Render("  " + line))
		} else {
			b.WriteString(m.theme.SidebarItem.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if len(rows) == 0 {
		b.WriteString(m.theme.SidebarItem.Render("No chats yet."))
	}

	return box.Width(width).Height(height).Render(strings.TrimRight(b.String(), "\n"))
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	if maxRunes <= 1 {
		return string(r[:maxRunes])
	}
	return string(r[:maxRunes-1]) + "…"
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

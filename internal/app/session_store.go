package app

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds every chat session for the signed-in principal plus the
// cross-session settings. All mutation goes through its methods; the
// TUI never holds a session pointer across an update.
//
// The store starts cold: mutations are accepted but the change callback
// stays silent until Hydrate has run, so a save triggered during
// startup can never clobber the snapshot being loaded.
type Store struct {
	mu        sync.Mutex
	sessions  []*ChatSession
	currentID string
	settings  SettingsState
	hydrated  bool
	onChange  func()
}

// NewStore returns an empty, unhydrated store. onChange fires after
// every committed mutation once the store is hydrated; it may be nil.
func NewStore(onChange func()) *Store {
	return &Store{
		settings: DefaultSettings(),
		onChange: onChange,
	}
}

// Hydrate replaces the store contents with a loaded snapshot and opens
// the change gate. Calling it twice is allowed; the second call wins.
func (s *Store) Hydrate(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make([]*ChatSession, 0, len(snap.Sessions))
	for i := range snap.Sessions {
		cp := snap.Sessions[i]
		s.sessions = append(s.sessions, &cp)
	}
	s.currentID = snap.CurrentSessionID
	if s.currentID == "" && len(s.sessions) > 0 {
		s.currentID = s.sessions[0].ID
	}
	s.settings = snap.Settings
	s.hydrated = true
}

// Hydrated reports whether Hydrate has completed.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

func (s *Store) notify() {
	if s.hydrated && s.onChange != nil {
		s.onChange()
	}
}

// CreateSession starts a fresh conversation on the given model, makes
// it current, and returns its id.
func (s *Store) CreateSession(modelID string) string {
	s.mu.Lock()
	sess := &ChatSession{
		ID:        uuid.NewString(),
		Title:     "New Conversation",
		ModelID:   modelID,
		CreatedAt: time.Now(),
	}
	s.sessions = append([]*ChatSession{sess}, s.sessions...)
	s.currentID = sess.ID
	s.mu.Unlock()
	s.notify()
	return sess.ID
}

// EnsureSession guarantees a current session once hydration has
// settled. Before hydration it does nothing, so a slow load never races
// a spurious blank session into the restored list.
func (s *Store) EnsureSession(modelID string) string {
	s.mu.Lock()
	if !s.hydrated {
		s.mu.Unlock()
		return ""
	}
	if s.currentID != "" {
		id := s.currentID
		s.mu.Unlock()
		return id
	}
	s.mu.Unlock()
	return s.CreateSession(modelID)
}

// DeleteSession removes a session. If it was current, the most recent
// remaining session becomes current, or none if the store is empty.
func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	kept := s.sessions[:0]
	removed := false
	for _, sess := range s.sessions {
		if sess.ID == id {
			removed = true
			continue
		}
		kept = append(kept, sess)
	}
	s.sessions = kept
	if removed && s.currentID == id {
		s.currentID = ""
		if len(s.sessions) > 0 {
			s.currentID = s.sessions[0].ID
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify()
	}
}

// TogglePin flips the pinned flag on a session.
func (s *Store) TogglePin(id string) {
	s.mu.Lock()
	changed := false
	for _, sess := range s.sessions {
		if sess.ID == id {
			sess.IsPinned = !sess.IsPinned
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// SetTitle patches a session title by id. Titles arrive asynchronously
// from the title generator, so a missing id is a silent no-op: the
// session may have been deleted while the title was in flight.
func (s *Store) SetTitle(id, title string) {
	s.mu.Lock()
	changed := false
	for _, sess := range s.sessions {
		if sess.ID == id {
			sess.Title = title
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// SetModel switches the model a session talks to.
func (s *Store) SetModel(id, modelID string) {
	s.mu.Lock()
	changed := false
	for _, sess := range s.sessions {
		if sess.ID == id {
			sess.ModelID = modelID
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// ReplaceMessages swaps the whole message slice of a session. The
// streaming pipeline rebuilds the transcript on every chunk, so this
// is the only message write path. Missing id is a no-op.
func (s *Store) ReplaceMessages(id string, msgs []Message) {
	s.mu.Lock()
	changed := false
	for _, sess := range s.sessions {
		if sess.ID == id {
			sess.Messages = append([]Message(nil), msgs...)
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// SelectSession makes an existing session current. Unknown ids leave
// the selection untouched.
func (s *Store) SelectSession(id string) {
	s.mu.Lock()
	changed := false
	for _, sess := range s.sessions {
		if sess.ID == id {
			if s.currentID != id {
				s.currentID = id
				changed = true
			}
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// CurrentID returns the selected session id, or "" if none.
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Session returns a copy of the session with the given id.
func (s *Store) Session(id string) (ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.ID == id {
			return cloneSession(sess), true
		}
	}
	return ChatSession{}, false
}

// CurrentSession returns a copy of the selected session.
func (s *Store) CurrentSession() (ChatSession, bool) {
	s.mu.Lock()
	id := s.currentID
	s.mu.Unlock()
	if id == "" {
		return ChatSession{}, false
	}
	return s.Session(id)
}

// Sessions returns copies of every session, pinned first, then newest
// first within each group. This is the sidebar order.
func (s *Store) Sessions() []ChatSession {
	s.mu.Lock()
	out := make([]ChatSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, cloneSession(sess))
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Search filters the sidebar listing by case-insensitive title
// substring. An empty query returns every session.
func (s *Store) Search(query string) []ChatSession {
	all := s.Sessions()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all
	}
	out := all[:0]
	for _, sess := range all {
		if strings.Contains(strings.ToLower(sess.Title), query) {
			out = append(out, sess)
		}
	}
	return out
}

// Settings returns the cross-session settings.
func (s *Store) Settings() SettingsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings replaces the cross-session settings.
func (s *Store) UpdateSettings(st SettingsState) {
	s.mu.Lock()
	s.settings = st
	s.mu.Unlock()
	s.notify()
}

// Snapshot captures the store for persistence.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Version:          SnapshotVersion,
		CurrentSessionID: s.currentID,
		Sessions:         make([]ChatSession, 0, len(s.sessions)),
		Settings:         s.settings,
	}
	for _, sess := range s.sessions {
		snap.Sessions = append(snap.Sessions, cloneSession(sess))
	}
	return snap
}

func cloneSession(sess *ChatSession) ChatSession {
	cp := *sess
	cp.Messages = append([]Message(nil), sess.Messages...)
	return cp
}

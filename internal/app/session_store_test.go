package app

import (
	"testing"
	"time"
)

func hydratedStore(t *testing.T, onChange func()) *Store {
	t.Helper()
	s := NewStore(onChange)
	s.Hydrate(Snapshot{Version: SnapshotVersion, Settings: DefaultSettings()})
	return s
}

func TestStoreHydrationGate(t *testing.T) {
	fired := 0
	s := NewStore(func() { fired++ })

	id := s.CreateSession("Hynix 1.3 Pro")
	if id == "" {
		t.Fatal("expected session id")
	}
	if fired != 0 {
		t.Fatalf("change callback fired %d times before hydration", fired)
	}

	s.Hydrate(Snapshot{Version: SnapshotVersion, Settings: DefaultSettings()})
	s.CreateSession("Hynix 1.3 Pro")
	if fired != 1 {
		t.Fatalf("change callback fired %d times after hydration, want 1", fired)
	}
}

func TestStoreHydrateSelectsFirstSession(t *testing.T) {
	s := NewStore(nil)
	s.Hydrate(Snapshot{
		Version: SnapshotVersion,
		Sessions: []ChatSession{
			{ID: "a", Title: "first"},
			{ID: "b", Title: "second"},
		},
		Settings: DefaultSettings(),
	})
	if got := s.CurrentID(); got != "a" {
		t.Fatalf("current = %q, want a", got)
	}
}

func TestStoreCreateDelete(t *testing.T) {
	s := hydratedStore(t, nil)
	first := s.CreateSession("Hynix 1.3 Pro")
	second := s.CreateSession("Nano 1.0")

	if got := s.CurrentID(); got != second {
		t.Fatalf("current = %q, want newly created %q", got, second)
	}

	s.DeleteSession(second)
	if got := s.CurrentID(); got != first {
		t.Fatalf("after deleting current, current = %q, want %q", got, first)
	}

	s.DeleteSession(first)
	if got := s.CurrentID(); got != "" {
		t.Fatalf("after deleting everything, current = %q, want empty", got)
	}
	if _, ok := s.CurrentSession(); ok {
		t.Fatal("expected no current session")
	}
}

func TestStoreDeleteUnknownIsNoop(t *testing.T) {
	fired := 0
	s := hydratedStore(t, func() { fired++ })
	id := s.CreateSession("Hynix 1.3 Pro")
	fired = 0

	s.DeleteSession("nope")
	if fired != 0 {
		t.Fatal("deleting an unknown id should not notify")
	}
	if got := s.CurrentID(); got != id {
		t.Fatalf("current changed to %q", got)
	}
}

func TestStoreSetTitleAfterDelete(t *testing.T) {
	fired := 0
	s := hydratedStore(t, func() { fired++ })
	id := s.CreateSession("Hynix 1.3 Pro")
	s.DeleteSession(id)
	fired = 0

	s.SetTitle(id, "Late Title")
	if fired != 0 {
		t.Fatal("titling a deleted session should not notify")
	}
}

func TestStoreReplaceMessagesCopies(t *testing.T) {
	s := hydratedStore(t, nil)
	id := s.CreateSession("Hynix 1.3 Pro")

	msgs := []Message{{ID: "m1", Role: RoleUser, Text: "hi"}}
	s.ReplaceMessages(id, msgs)
	msgs[0].Text = "mutated"

	got, ok := s.Session(id)
	if !ok {
		t.Fatal("session missing")
	}
	if len(got.Messages) != 1 || got.Messages[0].Text != "hi" {
		t.Fatalf("store aliased caller slice: %+v", got.Messages)
	}
}

func TestStoreSidebarOrder(t *testing.T) {
	s := NewStore(nil)
	base := time.Now()
	s.Hydrate(Snapshot{
		Version: SnapshotVersion,
		Sessions: []ChatSession{
			{ID: "old", CreatedAt: base.Add(-2 * time.Hour)},
			{ID: "pinned-old", CreatedAt: base.Add(-3 * time.Hour), IsPinned: true},
			{ID: "new", CreatedAt: base},
			{ID: "pinned-new", CreatedAt: base.Add(-time.Hour), IsPinned: true},
		},
		Settings: DefaultSettings(),
	})

	got := s.Sessions()
	want := []string{"pinned-new", "pinned-old", "new", "old"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order[%d] = %q, want %q (full: %v)", i, got[i].ID, id, ids(got))
		}
	}
}

func ids(sessions []ChatSession) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}

func TestStoreSnapshotRoundTrip(t *testing.T) {
	s := hydratedStore(t, nil)
	id := s.CreateSession("Hynix 1.3 Pro")
	s.ReplaceMessages(id, []Message{{ID: "m1", Role: RoleUser, Text: "hello"}})
	s.TogglePin(id)

	snap := s.Snapshot()
	if snap.Version != SnapshotVersion {
		t.Fatalf("version = %d", snap.Version)
	}
	if snap.CurrentSessionID != id {
		t.Fatalf("current = %q, want %q", snap.CurrentSessionID, id)
	}

	other := NewStore(nil)
	other.Hydrate(snap)
	got, ok := other.Session(id)
	if !ok {
		t.Fatal("session lost in round trip")
	}
	if !got.IsPinned || len(got.Messages) != 1 || got.Messages[0].Text != "hello" {
		t.Fatalf("round trip mangled session: %+v", got)
	}
}

func TestSearchFiltersByTitle(t *testing.T) {
	s := hydratedStore(t, nil)
	a := s.CreateSession("Hynix 1.3 Pro")
	b := s.CreateSession("Hynix 1.3 Pro")
	c := s.CreateSession("Hynix 1.3 Pro")
	s.SetTitle(a, "Trip Planning")
	s.SetTitle(b, "Go concurrency questions")
	s.SetTitle(c, "Planning the launch")

	got := ids(s.Search("plan"))
	if len(got) != 2 {
		t.Fatalf("matches = %v", got)
	}
	for _, id := range got {
		if id == b {
			t.Fatal("non-matching session returned")
		}
	}

	if n := len(s.Search("")); n != 3 {
		t.Fatalf("empty query matches = %d, want 3", n)
	}
	if n := len(s.Search("zzz")); n != 0 {
		t.Fatalf("no-match query matches = %d, want 0", n)
	}
}

func TestEnsureSessionGatedOnHydration(t *testing.T) {
	s := NewStore(nil)
	if id := s.EnsureSession("Hynix 1.3 Pro"); id != "" {
		t.Fatalf("ensure before hydration created %q", id)
	}

	s.Hydrate(Snapshot{})
	id := s.EnsureSession("Hynix 1.3 Pro")
	if id == "" {
		t.Fatal("ensure after hydration should create a session")
	}
	if s.CurrentID() != id {
		t.Fatal("created session not current")
	}
	// With a current session it is a no-op.
	if again := s.EnsureSession("Hynix 1.3 Pro"); again != id {
		t.Fatalf("ensure created a second session: %q", again)
	}
}

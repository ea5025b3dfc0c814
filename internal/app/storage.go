package app

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is the current on-disk schema version.
const SnapshotVersion = 1

// Snapshot is the persisted shape of a principal's entire chat state.
type Snapshot struct {
	Version          int           `json:"version"`
	CurrentSessionID string        `json:"current_session_id"`
	Sessions         []ChatSession `json:"sessions"`
	Settings         SettingsState `json:"settings"`
}

// FileStorage reads and writes per-principal snapshots as JSON files.
//
// Layout:
//
//	<root>/sessions/<key>.json
//
// where key is derived from the principal's email. Decoding is schema
// tolerant: the pre-versioning format (a bare session array) is
// migrated in place, and an unreadable file yields an empty snapshot
// rather than an error, so a corrupt store never blocks sign-in.
type FileStorage struct {
	Root   string
	Logger *Logger
}

// DefaultStorageRoot resolves the snapshot directory.
// Prefer XDG data dir (Linux/macOS). If unavailable, fall back to ~/.local/share.
func DefaultStorageRoot() string {
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, "hynix", "storage")
	}
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".local", "share", "hynix", "storage")
	}
	return filepath.Join(os.TempDir(), "hynix", "storage")
}

func NewFileStorage(root string, logger *Logger) *FileStorage {
	if strings.TrimSpace(root) == "" {
		root = DefaultStorageRoot()
	}
	return &FileStorage{Root: root, Logger: logger}
}

// storageKey flattens an email into a filesystem-safe snapshot key.
func storageKey(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = "anonymous"
	}
	var b strings.Builder
	for _, r := range email {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return "hynix_sessions_" + b.String()
}

func (fs *FileStorage) snapshotPath(email string) string {
	return filepath.Join(fs.Root, "sessions", storageKey(email)+".json")
}

// Load returns the snapshot for an email. Missing, corrupt and
// unrecognized files all decode to an empty snapshot with default
// settings; only the legacy bare-array format carries state through a
// migration.
func (fs *FileStorage) Load(email string) Snapshot {
	empty := Snapshot{Version: SnapshotVersion, Settings: DefaultSettings()}

	b, err := os.ReadFile(fs.snapshotPath(email))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fs.logWarn("snapshot unreadable, starting empty", map[string]interface{}{"error": err.Error()})
		}
		return empty
	}

	snap, err := DecodeSnapshot(b)
	if err != nil {
		fs.logWarn("snapshot corrupt, starting empty", map[string]interface{}{"error": err.Error()})
		return empty
	}
	return snap
}

// DecodeSnapshot parses snapshot bytes, migrating the legacy
// bare-array format. The legacy format stored only the session list,
// so the first session becomes current and settings reset to defaults.
func DecodeSnapshot(b []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err == nil && snap.Version >= 1 {
		if snap.Settings.PersonaID == "" {
			snap.Settings = DefaultSettings()
		}
		snap.Version = SnapshotVersion
		return snap, nil
	}

	var legacy []ChatSession
	if err := json.Unmarshal(b, &legacy); err != nil {
		return Snapshot{}, err
	}
	snap = Snapshot{
		Version:  SnapshotVersion,
		Sessions: legacy,
		Settings: DefaultSettings(),
	}
	if len(legacy) > 0 {
		snap.CurrentSessionID = legacy[0].ID
	}
	return snap, nil
}

// Save writes a snapshot for an email. Write failures are logged and
// swallowed: losing one save must not take down a chat in progress.
func (fs *FileStorage) Save(email string, snap Snapshot) {
	snap.Version = SnapshotVersion
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		fs.logWarn("snapshot encode failed", map[string]interface{}{"error": err.Error()})
		return
	}

	path := fs.snapshotPath(email)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fs.logWarn("snapshot dir create failed", map[string]interface{}{"error": err.Error()})
		return
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		fs.logWarn("snapshot write failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		fs.logWarn("snapshot rename failed", map[string]interface{}{"error": err.Error()})
	}
}

// Clear removes the snapshot for an email. Used by account deletion.
func (fs *FileStorage) Clear(email string) {
	_ = os.Remove(fs.snapshotPath(email))
}

func (fs *FileStorage) logWarn(msg string, fields map[string]interface{}) {
	if fs.Logger != nil {
		fs.Logger.Warn(msg, fields)
	}
}

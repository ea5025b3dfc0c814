package app

import (
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrAccountExists      = errors.New("account already exists with this email")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// GuestPrincipal is the account used by "Continue as Guest". Guest
// state persists under its own snapshot key like any other account.
var GuestPrincipal = Principal{
	Name:    "Guest User",
	Email:   "guest@hynix.ai",
	Picture: "https://ui-avatars.com/api/?name=Guest+User&background=64748b&color=fff",
}

// AccountStore keeps local accounts in sqlite.
type AccountStore struct {
	Root   string
	dbPath string

	mu   sync.Mutex
	db   *sql.DB
	once sync.Once
	err  error
}

func NewAccountStore(root string) (*AccountStore, error) {
	if strings.TrimSpace(root) == "" {
		root = DefaultStorageRoot()
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	st := &AccountStore{
		Root:   root,
		dbPath: filepath.Join(root, "hynix.db"),
	}
	// Initialize eagerly so callers fail fast.
	if err := st.init(); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *AccountStore) init() error {
	s.once.Do(func() {
		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			s.err = err
			return
		}
		// Keep sqlite responsive under contention.
		_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
		_, _ = db.Exec("PRAGMA journal_mode = WAL;")
		_, _ = db.Exec("PRAGMA synchronous = NORMAL;")

		if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS accounts (
			email TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			picture TEXT NOT NULL,
			created_at_ns INTEGER NOT NULL
		);`); err != nil {
			_ = db.Close()
			s.err = err
			return
		}
		s.db = db
	})
	return s.err
}

func (s *AccountStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func avatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a local account and returns its principal.
func (s *AccountStore) Register(name, email, password string) (Principal, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return Principal{}, errors.New("please fill in all fields")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM accounts WHERE email = ?`, email).Scan(&exists); err != nil {
		return Principal{}, err
	}
	if exists > 0 {
		return Principal{}, ErrAccountExists
	}

	picture := avatarURL(name)
	_, err := s.db.Exec(
		`INSERT INTO accounts (email, name, password_hash, picture, created_at_ns) VALUES (?, ?, ?, ?, ?)`,
		email, name, hashPassword(password), picture, time.Now().UnixNano(),
	)
	if err != nil {
		return Principal{}, err
	}
	return Principal{Name: name, Email: email, Picture: picture}, nil
}

// Login checks credentials and returns the matching principal.
func (s *AccountStore) Login(email, password string) (Principal, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Principal{}, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var name, hash, picture string
	err := s.db.QueryRow(`SELECT name, password_hash, picture FROM accounts WHERE email = ?`, email).
		Scan(&name, &hash, &picture)
	if errors.Is(err, sql.ErrNoRows) {
		return Principal{}, ErrInvalidCredentials
	}
	if err != nil {
		return Principal{}, err
	}

	want := hashPassword(password)
	if subtle.ConstantTimeCompare([]byte(hash), []byte(want)) != 1 {
		return Principal{}, ErrInvalidCredentials
	}
	return Principal{Name: name, Email: email, Picture: picture}, nil
}

// LoginFederated signs in an externally verified identity, creating the
// account on first use. The identity is accepted as-is; verification
// happens upstream. Federated accounts carry no local password, so
// password login never matches them.
func (s *AccountStore) LoginFederated(name, email, picture string) (Principal, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return Principal{}, ErrInvalidCredentials
	}
	if strings.TrimSpace(picture) == "" {
		picture = avatarURL(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO accounts (email, name, password_hash, picture, created_at_ns) VALUES (?, ?, '', ?, ?)
		 ON CONFLICT(email) DO UPDATE SET name = excluded.name, picture = excluded.picture`,
		email, name, picture, time.Now().UnixNano(),
	)
	if err != nil {
		return Principal{}, err
	}
	return Principal{Name: name, Email: email, Picture: picture}, nil
}

// Delete removes an account. The caller clears its snapshot separately.
func (s *AccountStore) Delete(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM accounts WHERE email = ?`, normalizeEmail(email))
	return err
}

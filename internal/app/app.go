package app

import (
	"context"
	"sync"
	"time"
)

// Application owns the wiring between the account store, the per-user
// snapshot storage, the in-memory session store and the generation
// coordinator. The TUI talks to this and to the exported fields.
type Application struct {
	Config      Config
	Logger      *Logger
	Accounts    *AccountStore
	Storage     *FileStorage
	Store       *Store
	Coordinator *Coordinator
	Completer   Completer
	Workspace   *Workspace

	saver *Debouncer

	mu        sync.Mutex
	principal Principal
	signedIn  bool
}

// NewApplication builds the full stack. In mock mode no network client
// is constructed and replies come from a scripted completer. notify may
// be nil when no UI is attached (exports, tests).
func NewApplication(ctx context.Context, cfg Config, mockMode bool, notify func(GenEvent)) (*Application, error) {
	logger := NewLogger(DefaultLogWriter())

	var completer Completer
	if mockMode {
		completer = NewMockCompleter()
	} else {
		gc, err := NewGeminiCompleter(ctx, cfg.GeminiAPIKey, logger)
		if err != nil {
			return nil, err
		}
		completer = gc
	}

	accounts, err := NewAccountStore(cfg.StorageRoot)
	if err != nil {
		return nil, err
	}

	app := &Application{
		Config:    cfg,
		Logger:    logger,
		Accounts:  accounts,
		Storage:   NewFileStorage(cfg.StorageRoot, logger),
		Completer: completer,
		Workspace: NewWorkspace(),
	}
	app.Store = NewStore(app.scheduleSave)
	app.saver = NewDebouncer(time.Duration(cfg.SaveDelayMS)*time.Millisecond, app.persist)
	app.Coordinator = NewCoordinator(app.Store, completer, logger, nil, notify)
	app.Coordinator.SetCodeOptions(CodeOptions{CodeStyle: cfg.CodeStyle, IncludeTests: cfg.IncludeTests})
	return app, nil
}

// SetLocation installs the provider consulted by location-aware models.
func (a *Application) SetLocation(provider LocationProvider) {
	a.Coordinator.SetLocation(provider)
}

// Principal returns the signed-in identity, if any.
func (a *Application) Principal() (Principal, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.principal, a.signedIn
}

// SignInGuest starts a guest session. Guest conversations persist under
// the shared guest identity like any other account.
func (a *Application) SignInGuest() Principal {
	a.adopt(GuestPrincipal)
	return GuestPrincipal
}

// Register creates an account and signs it in.
func (a *Application) Register(name, email, password string) (Principal, error) {
	p, err := a.Accounts.Register(name, email, password)
	if err != nil {
		return Principal{}, err
	}
	a.adopt(p)
	return p, nil
}

// Login signs an existing account in.
func (a *Application) Login(email, password string) (Principal, error) {
	p, err := a.Accounts.Login(email, password)
	if err != nil {
		return Principal{}, err
	}
	a.adopt(p)
	return p, nil
}

// LoginFederated signs in via an external identity provider, creating
// the account on first contact.
func (a *Application) LoginFederated(name, email, picture string) (Principal, error) {
	p, err := a.Accounts.LoginFederated(name, email, picture)
	if err != nil {
		return Principal{}, err
	}
	a.adopt(p)
	return p, nil
}

// adopt switches the active identity: flush any pending save for the
// previous one, then hydrate the store from the new identity's
// snapshot.
func (a *Application) adopt(p Principal) {
	a.saver.Flush()

	a.mu.Lock()
	a.principal = p
	a.signedIn = true
	a.mu.Unlock()

	snap := a.Storage.Load(p.Email)
	if len(snap.Sessions) == 0 {
		// First sign-in on this identity: the configured temperature
		// becomes the starting setting. Returning users keep whatever
		// their snapshot says.
		snap.Settings.Temperature = a.Config.Temperature
	}
	a.Store.Hydrate(snap)
	a.Workspace.Reset()
	a.Store.EnsureSession(a.defaultModel())
	a.syncWorkspace()
}

// Logout flushes pending changes and drops the identity. The store
// keeps its contents until the next sign-in hydrates over them.
func (a *Application) Logout() {
	a.Coordinator.Stop()
	a.saver.Flush()

	a.mu.Lock()
	a.principal = Principal{}
	a.signedIn = false
	a.mu.Unlock()
}

// Close shuts the application down, persisting any unsaved changes.
func (a *Application) Close() error {
	a.Coordinator.Stop()
	a.saver.Flush()
	a.saver.Stop()
	return a.Accounts.Close()
}

// ApplyPersona switches the active persona, replacing the custom system
// instruction with the persona's.
func (a *Application) ApplyPersona(id string) {
	p := PersonaByID(id)
	settings := a.Store.Settings()
	settings.PersonaID = p.ID
	settings.SystemInstruction = p.SystemInstruction
	a.Store.UpdateSettings(settings)
}

// NewSession creates and selects a conversation on the configured
// default model.
func (a *Application) NewSession() string {
	return a.Store.CreateSession(a.defaultModel())
}

// SyncWorkspace re-extracts generated files from the current
// conversation and merges them into the workspace.
func (a *Application) SyncWorkspace() bool {
	return a.syncWorkspace()
}

func (a *Application) syncWorkspace() bool {
	sess, ok := a.Store.CurrentSession()
	if !ok {
		return false
	}
	return a.Workspace.Sync(sess.Messages)
}

func (a *Application) defaultModel() string {
	if a.Config.DefaultModel != "" {
		return a.Config.DefaultModel
	}
	return DefaultModelForMode(AppMode(a.Config.Mode))
}

// scheduleSave is the store's change hook. Saves are debounced so a
// streaming reply does not rewrite the snapshot on every chunk.
func (a *Application) scheduleSave() {
	a.mu.Lock()
	signedIn := a.signedIn
	a.mu.Unlock()
	if signedIn {
		a.saver.Trigger()
	}
}

func (a *Application) persist() {
	a.mu.Lock()
	p := a.principal
	signedIn := a.signedIn
	a.mu.Unlock()
	if !signedIn {
		return
	}
	a.Storage.Save(p.Email, a.Store.Snapshot())
}

// Package session keeps the authenticated user, their token and the active
// store, persisted across runs.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/webtray/webtray/internal/models"
	"github.com/webtray/webtray/internal/types"
)

var logger = loggo.GetLogger("webtray.session")

// StorageKey is the fixed blob key of the persisted session.
const StorageKey = "webtray-auth"

type Session struct {
	User          models.User `json:"user"`
	Token         string      `json:"token"`
	ActiveStoreID int64       `json:"activeStoreId,omitempty"`
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Post(ctx context.Context, path string, query url.Values, body, out any) error
}

// Manager owns the session and writes it through to the blob store on every
// change.
type Manager struct {
	mu      sync.RWMutex
	store   types.BlobStore
	current Session
}

func NewManager(store types.BlobStore) *Manager {
	return &Manager{store: store}
}

// Load rehydrates the persisted session. Missing or unreadable data yields an
// empty session.
func (m *Manager) Load(ctx context.Context) error {
	data, err := m.store.Load(ctx, StorageKey)
	if errors.Is(err, errors.NotFound) {
		m.set(Session{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Warningf("discarding unreadable session: %v", err)
		m.set(Session{})
		return nil
	}
	m.set(s)
	return nil
}

func (m *Manager) set(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
}

func (m *Manager) save(ctx context.Context, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := m.store.Save(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	m.set(s)
	return nil
}

func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) Token() string {
	return m.Current().Token
}

func (m *Manager) ActiveStoreID() (int64, bool) {
	id := m.Current().ActiveStoreID
	return id, id != 0
}

func (m *Manager) Authenticated() bool {
	return m.Current().Token != ""
}

// Start records a fresh login. The active store is kept only when the same
// user logs in again.
func (m *Manager) Start(ctx context.Context, result models.AuthResult) error {
	prev := m.Current()
	next := Session{User: result.User, Token: result.Token}
	if prev.User.ID == result.User.ID {
		next.ActiveStoreID = prev.ActiveStoreID
	}
	return m.save(ctx, next)
}

// Login posts credentials to the backend and starts a session with the
// returned token.
func (m *Manager) Login(ctx context.Context, client Authenticator, email, password string) (models.User, error) {
	var result models.AuthResult
	creds := models.Credentials{Email: email, Password: password}
	if err := client.Post(ctx, "/auth/login", nil, creds, &result); err != nil {
		return models.User{}, fmt.Errorf("failed to log in: %w", err)
	}
	if result.Token == "" {
		return models.User{}, errors.NewUnauthorized(nil, "login returned no token")
	}
	if err := m.Start(ctx, result); err != nil {
		return models.User{}, err
	}
	logger.Infof("logged in as %s", result.User.Email)
	return result.User, nil
}

func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	m.set(Session{})
	return nil
}

// SetActiveStore switches every store-scoped query to storeID.
func (m *Manager) SetActiveStore(ctx context.Context, storeID int64) error {
	if storeID <= 0 {
		return errors.NotValidf("store id %d", storeID)
	}
	s := m.Current()
	s.ActiveStoreID = storeID
	return m.save(ctx, s)
}

var (
	_ types.StoreScope  = (*Manager)(nil)
	_ types.TokenSource = (*Manager)(nil)
)

// Fixed scopes that do not come from a session.
type StaticScope int64

func (s StaticScope) ActiveStoreID() (int64, bool) {
	return int64(s), s != 0
}

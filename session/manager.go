// Package session keeps the authenticated user in step with the identity
// provider: it installs the bearer header on sign-in, loads the backend
// profile and drops user state and cached data on sign-out.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-seller-client/gateway"
	"github.com/jrsteele09/go-seller-client/identity"
	apperrors "github.com/jrsteele09/go-seller-client/internal/errors"
	"github.com/jrsteele09/go-seller-client/sellermodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const ProfilePath = "/api/users/me"

var ErrNotStarted = errors.New("session manager not started")

// Backend is the part of the gateway the manager needs.
type Backend interface {
	gateway.Doer
	SetAuthHeader(token string)
}

// Cache is cleared on sign-out.
type Cache interface {
	Clear()
}

var _ Backend = (*gateway.Gateway)(nil)

type Manager struct {
	provider identity.Provider
	backend  Backend
	cache    Cache
	log      zerolog.Logger

	lock        sync.RWMutex
	ctx         context.Context
	user        *User
	current     string // principal ID of the latest provider event
	loading     bool
	unsubscribe func()
}

type Option func(*Manager)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.log = logger }
}

func WithCache(c Cache) Option {
	return func(m *Manager) { m.cache = c }
}

func NewManager(provider identity.Provider, backend Backend, opts ...Option) *Manager {
	m := &Manager{
		provider: provider,
		backend:  backend,
		log:      log.Logger,
		loading:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start subscribes to principal changes. The provider reports the current
// principal straight away, so the user is known when Start returns. ctx is
// used for the profile loads triggered by later provider events.
func (m *Manager) Start(ctx context.Context) {
	m.lock.Lock()
	if m.unsubscribe != nil {
		m.lock.Unlock()
		return
	}
	m.ctx = context.WithoutCancel(ctx)
	m.lock.Unlock()

	unsubscribe := m.provider.OnPrincipalChanged(m.principalChanged)

	m.lock.Lock()
	m.unsubscribe = unsubscribe
	m.lock.Unlock()
}

// Close stops following the provider. The current user is kept.
func (m *Manager) Close() {
	m.lock.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.lock.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (m *Manager) principalChanged(p *identity.Principal) {
	m.lock.Lock()
	ctx := m.ctx
	if p == nil {
		m.current = ""
	} else {
		m.current = p.ID
	}
	m.lock.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	if p == nil {
		m.signedOut()
	} else if err := m.sync(ctx, p); err != nil {
		m.log.Err(err).Str("principal", p.ID).Msg("Sync error")
	}

	m.lock.Lock()
	m.loading = false
	m.lock.Unlock()
}

func (m *Manager) signedOut() {
	m.lock.Lock()
	previous := m.user
	m.user = nil
	m.lock.Unlock()

	m.backend.SetAuthHeader("")
	if m.cache != nil {
		m.cache.Clear()
	}
	if previous != nil {
		m.log.Info().Str("principal", previous.UID).Msg("Signed out")
	}
}

// sync installs p's token as the default Authorization header and loads the
// backend profile. When the profile cannot be loaded the user is set from the
// principal alone and the error is returned.
func (m *Manager) sync(ctx context.Context, p *identity.Principal) error {
	token, err := m.provider.IssueToken(ctx, p)
	if err != nil {
		m.commit(p, nil)
		return apperrors.Wrapf(err, "failed to get token for %s", p.ID)
	}
	if !m.installHeader(p, token) {
		m.log.Debug().Str("principal", p.ID).Msg("Principal replaced while issuing token")
		return nil
	}

	raw, err := m.backend.Do(ctx, http.MethodGet, ProfilePath, nil)
	if err != nil {
		m.commit(p, nil)
		return apperrors.Wrapf(err, "failed to load profile")
	}
	profile, err := sellermodel.DecodeProfile(raw)
	if err != nil {
		m.commit(p, nil)
		return err
	}
	m.commit(p, profile)
	return nil
}

// installHeader sets token as the default Authorization header if p is still
// the current principal. A sign-out clears the header only after it has
// replaced current, so a stale token can never outlive it.
func (m *Manager) installHeader(p *identity.Principal, token string) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.current != p.ID {
		return false
	}
	m.backend.SetAuthHeader(token)
	return true
}

// commit stores the merged user unless another principal event arrived while
// the profile was loading.
func (m *Manager) commit(p *identity.Principal, profile *sellermodel.Profile) {
	u := Merge(p, profile)

	m.lock.Lock()
	defer m.lock.Unlock()
	if m.current != p.ID {
		m.log.Debug().Str("principal", p.ID).Msg("Discarding profile of a replaced principal")
		return
	}
	m.user = u
}

// User returns a copy of the authenticated user, or nil.
func (m *Manager) User() *User {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	if u.SellerProfile != nil {
		sp := *u.SellerProfile
		u.SellerProfile = &sp
	}
	return &u
}

func (m *Manager) IsAuthenticated() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.user != nil
}

// Loading is true until the first principal event has been handled.
func (m *Manager) Loading() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.loading
}

// RefreshUserStatus reloads the profile, e.g. after a seller application was
// submitted. Without a signed-in principal it does nothing.
func (m *Manager) RefreshUserStatus(ctx context.Context) error {
	m.lock.RLock()
	started := m.unsubscribe != nil
	m.lock.RUnlock()
	if !started {
		return ErrNotStarted
	}

	p := m.provider.CurrentPrincipal()
	if p == nil {
		return nil
	}
	return m.sync(ctx, p)
}

// Logout signs the principal out. The provider's change event clears the
// user, the header and the cache.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.provider.SignOut(ctx); err != nil {
		m.log.Err(err).Msg("Logout error")
		return err
	}
	return nil
}

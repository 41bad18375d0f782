package identityfake

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-seller-client/identity"
	apperrors "github.com/jrsteele09/go-seller-client/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

var _ identity.Provider = (*FakeProvider)(nil)

type account struct {
	principal    identity.Principal
	passwordHash string
}

type confirmation struct {
	phone string
	code  string
}

// FakeProvider is an in-memory identity provider. Tokens are rotated on every
// issue so tests can tell which call produced which header.
type FakeProvider struct {
	lock      sync.RWMutex
	principal *identity.Principal
	accounts  map[string]*account // email to account
	phoneIDs  map[string]string   // phone to principal id
	confirm   *confirmation
	tokenErr  error
	issued    int
	signOuts  int
	listeners *identity.Listeners

	// IssueHook, when set, runs before every IssueToken call.
	IssueHook func(p *identity.Principal)
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		accounts:  make(map[string]*account),
		phoneIDs:  make(map[string]string),
		listeners: identity.NewListeners(),
	}
}

// SignInAs signs p in directly. An empty ID gets a generated one.
func (fp *FakeProvider) SignInAs(p identity.Principal) *identity.Principal {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	fp.lock.Lock()
	fp.principal = &p
	fp.lock.Unlock()

	fp.listeners.Notify(&p)
	return &p
}

// RegisterEmail creates an email/password account and signs it in.
func (fp *FakeProvider) RegisterEmail(email, password string) (*identity.Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	p := identity.Principal{ID: uuid.New().String(), Email: email, SignInProvider: "password"}
	fp.lock.Lock()
	fp.accounts[email] = &account{principal: p, passwordHash: string(hash)}
	fp.lock.Unlock()

	return fp.SignInAs(p), nil
}

func (fp *FakeProvider) SignInWithEmail(email, password string) (*identity.Principal, error) {
	fp.lock.RLock()
	acc, ok := fp.accounts[email]
	fp.lock.RUnlock()
	if !ok {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.passwordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return fp.SignInAs(acc.principal), nil
}

// SendOTP starts a phone sign-in and returns the code that would be texted.
// A new request replaces any pending confirmation.
func (fp *FakeProvider) SendOTP(phone string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	fp.lock.Lock()
	fp.confirm = &confirmation{phone: phone, code: code}
	fp.lock.Unlock()
	return code, nil
}

func (fp *FakeProvider) VerifyOTP(code string) (*identity.Principal, error) {
	fp.lock.Lock()
	c := fp.confirm
	if c == nil {
		fp.lock.Unlock()
		return nil, apperrors.ErrOTPNotRequested
	}
	if c.code != code {
		fp.lock.Unlock()
		return nil, apperrors.ErrInvalidOTP
	}
	fp.confirm = nil
	id, ok := fp.phoneIDs[c.phone]
	if !ok {
		id = uuid.New().String()
		fp.phoneIDs[c.phone] = id
	}
	fp.lock.Unlock()

	return fp.SignInAs(identity.Principal{ID: id, Phone: c.phone, SignInProvider: "phone"}), nil
}

// SetTokenError makes IssueToken fail with err until cleared with nil.
func (fp *FakeProvider) SetTokenError(err error) {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	fp.tokenErr = err
}

func (fp *FakeProvider) CurrentPrincipal() *identity.Principal {
	fp.lock.RLock()
	defer fp.lock.RUnlock()
	return fp.principal
}

func (fp *FakeProvider) IssueToken(_ context.Context, p *identity.Principal) (string, error) {
	if fp.IssueHook != nil {
		fp.IssueHook(p)
	}

	fp.lock.Lock()
	defer fp.lock.Unlock()
	if fp.tokenErr != nil {
		return "", fp.tokenErr
	}
	if fp.principal == nil {
		return "", apperrors.ErrNoPrincipal
	}
	if p != nil && p.ID != fp.principal.ID {
		return "", apperrors.ErrPrincipalMismatch
	}
	fp.issued++
	return fmt.Sprintf("token-%s-%d", fp.principal.ID, fp.issued), nil
}

// LastToken returns the most recently issued token.
func (fp *FakeProvider) LastToken() string {
	fp.lock.RLock()
	defer fp.lock.RUnlock()
	if fp.principal == nil || fp.issued == 0 {
		return ""
	}
	return fmt.Sprintf("token-%s-%d", fp.principal.ID, fp.issued)
}

func (fp *FakeProvider) SignOut(_ context.Context) error {
	fp.lock.Lock()
	if fp.principal == nil {
		fp.lock.Unlock()
		return nil
	}
	fp.principal = nil
	fp.signOuts++
	fp.lock.Unlock()

	fp.listeners.Notify(nil)
	return nil
}

// SignOutCount returns how many sign-outs actually ended a session.
func (fp *FakeProvider) SignOutCount() int {
	fp.lock.RLock()
	defer fp.lock.RUnlock()
	return fp.signOuts
}

func (fp *FakeProvider) IssuedCount() int {
	fp.lock.RLock()
	defer fp.lock.RUnlock()
	return fp.issued
}

func (fp *FakeProvider) OnPrincipalChanged(fn func(*identity.Principal)) func() {
	unsubscribe := fp.listeners.Add(fn)
	fn(fp.CurrentPrincipal())
	return unsubscribe
}

package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-seller-client/internal/config"
	apperrors "github.com/jrsteele09/go-seller-client/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var _ Provider = (*TokenService)(nil)

// TokenService is a Provider backed by an OAuth2 token endpoint. It keeps the
// token for the signed-in principal and refreshes it shortly before expiry.
type TokenService struct {
	oauthConfig *oauth2.Config
	verifier    *Verifier
	margin      time.Duration
	log         zerolog.Logger

	lock      sync.RWMutex
	principal *Principal
	source    oauth2.TokenSource
	listeners *Listeners
}

// NewTokenService creates a token service. verifier may be nil, in which case
// ID token claims are read without signature verification.
func NewTokenService(cfg config.IdentityConfig, verifier *Verifier, logger zerolog.Logger) *TokenService {
	return &TokenService{
		oauthConfig: &oauth2.Config{
			ClientID: cfg.GetClientID(),
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.GetTokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		verifier:  verifier,
		margin:    cfg.GetTokenRefreshMargin(),
		log:       logger,
		listeners: NewListeners(),
	}
}

// SignIn installs tok as the session token and notifies listeners.
// The principal is read from the "id_token" extra, falling back to the
// access token when it is a JWT.
func (s *TokenService) SignIn(ctx context.Context, tok *oauth2.Token) (*Principal, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, apperrors.ErrInvalidToken
	}

	claims, err := s.claims(ctx, tok)
	if err != nil {
		return nil, err
	}
	p, err := PrincipalFromClaims(claims)
	if err != nil {
		return nil, err
	}
	if tok.Expiry.IsZero() && !p.ExpiresAt.IsZero() {
		withExpiry := *tok
		withExpiry.Expiry = p.ExpiresAt
		tok = &withExpiry
	}

	refresher := &refreshSource{
		ctx:          context.WithoutCancel(ctx),
		config:       s.oauthConfig,
		refreshToken: tok.RefreshToken,
	}

	s.lock.Lock()
	s.principal = p
	s.source = oauth2.ReuseTokenSourceWithExpiry(tok, refresher, s.margin)
	s.lock.Unlock()

	s.log.Info().Str("principal", p.ID).Str("provider", p.SignInProvider).Msg("Signed in")
	s.listeners.Notify(p)
	return p, nil
}

func (s *TokenService) claims(ctx context.Context, tok *oauth2.Token) (jwtlib.MapClaims, error) {
	rawIDToken, _ := tok.Extra("id_token").(string)
	if s.verifier != nil {
		if rawIDToken == "" {
			return nil, fmt.Errorf("%w: missing id_token", apperrors.ErrInvalidToken)
		}
		return s.verifier.Verify(ctx, rawIDToken)
	}
	if rawIDToken != "" {
		return ParseClaims(rawIDToken)
	}
	return ParseClaims(tok.AccessToken)
}

func (s *TokenService) CurrentPrincipal() *Principal {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.principal
}

func (s *TokenService) IssueToken(_ context.Context, p *Principal) (string, error) {
	s.lock.RLock()
	current, source := s.principal, s.source
	s.lock.RUnlock()

	if current == nil {
		return "", apperrors.ErrNoPrincipal
	}
	if p != nil && p.ID != current.ID {
		return "", apperrors.ErrPrincipalMismatch
	}

	tok, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrTokenUnavailable, err)
	}
	return tok.AccessToken, nil
}

func (s *TokenService) SignOut(_ context.Context) error {
	s.lock.Lock()
	if s.principal == nil {
		s.lock.Unlock()
		return nil
	}
	id := s.principal.ID
	s.principal = nil
	s.source = nil
	s.lock.Unlock()

	s.log.Info().Str("principal", id).Msg("Signed out")
	s.listeners.Notify(nil)
	return nil
}

func (s *TokenService) OnPrincipalChanged(fn func(*Principal)) func() {
	unsubscribe := s.listeners.Add(fn)
	fn(s.CurrentPrincipal())
	return unsubscribe
}

// refreshSource always exchanges the refresh token. Reuse and expiry are left
// to the oauth2.ReuseTokenSource wrapping it, which also serializes calls.
type refreshSource struct {
	ctx          context.Context
	config       *oauth2.Config
	refreshToken string
}

func (r *refreshSource) Token() (*oauth2.Token, error) {
	if r.refreshToken == "" {
		return nil, apperrors.ErrSessionExpired
	}
	tok, err := r.config.TokenSource(r.ctx, &oauth2.Token{RefreshToken: r.refreshToken}).Token()
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken != "" {
		r.refreshToken = tok.RefreshToken
	}
	return tok, nil
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-seller-client/gateway"
	"github.com/jrsteele09/go-seller-client/identity"
	apperrors "github.com/jrsteele09/go-seller-client/internal/errors"
	"github.com/jrsteele09/go-seller-client/query"
	"github.com/jrsteele09/go-seller-client/seller"
	"github.com/jrsteele09/go-seller-client/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// app is the client stack one command runs against.
type app struct {
	provider identity.Provider
	gateway  *gateway.Gateway
	cache    *query.Client
	sessions *session.Manager
	seller   *seller.Service
	registry *prometheus.Registry
}

func (e *env) connect(ctx context.Context) (*app, error) {
	provider, err := e.signIn(ctx)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	logger := log.Logger
	gw := gateway.New(e.flags.baseURL, e.opts.cfg, provider,
		gateway.WithLogger(logger),
		gateway.WithMetrics(gateway.NewMetrics(registry)),
	)
	cache, err := query.New(gw, e.opts.cfg, query.WithLogger(logger))
	if err != nil {
		return nil, apperrors.Wrapf(err, "query.New")
	}
	sessions := session.NewManager(provider, gw, session.WithLogger(logger), session.WithCache(cache))
	sessions.Start(ctx)

	return &app{
		provider: provider,
		gateway:  gw,
		cache:    cache,
		sessions: sessions,
		seller:   seller.NewService(cache, seller.WithLogger(logger)),
		registry: registry,
	}, nil
}

// signIn returns the injected provider, or a token service signed in with the
// tokens from the flags.
func (e *env) signIn(ctx context.Context) (identity.Provider, error) {
	if e.opts.provider != nil {
		return e.opts.provider, nil
	}

	var verifier *identity.Verifier
	if issuer := e.opts.cfg.GetOIDCIssuer(); issuer != "" {
		v, err := identity.NewVerifier(ctx, issuer, e.opts.cfg.GetClientID())
		if err != nil {
			return nil, apperrors.Wrapf(err, "identity.NewVerifier")
		}
		verifier = v
	}
	tokens := identity.NewTokenService(e.opts.cfg, verifier, log.Logger)

	idToken := strings.TrimSpace(e.flags.idToken)
	if idToken == "" {
		return tokens, nil
	}
	tok := (&oauth2.Token{
		AccessToken:  idToken,
		TokenType:    "Bearer",
		RefreshToken: strings.TrimSpace(e.flags.refreshToken),
	}).WithExtra(map[string]any{"id_token": idToken})
	if _, err := tokens.SignIn(ctx, tok); err != nil {
		return nil, apperrors.Wrapf(err, "sign in")
	}
	return tokens, nil
}

// requireUser fails unless a principal is signed in.
func (a *app) requireUser() (*session.User, error) {
	u := a.sessions.User()
	if u == nil {
		return nil, fmt.Errorf("%w: pass --id-token or set %s", apperrors.ErrNoPrincipal, idTokenEnv)
	}
	return u, nil
}

func (a *app) close() {
	a.sessions.Close()
}

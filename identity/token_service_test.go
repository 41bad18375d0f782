package identity_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-seller-client/identity"
	apperrors "github.com/jrsteele09/go-seller-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testIssuer   = "https://securetoken.example.com/seller-app"
	testClientID = "seller-app"
)

type testIdentityConfig struct {
	tokenURL string
}

func (c testIdentityConfig) GetTokenURL() string                  { return c.tokenURL }
func (c testIdentityConfig) GetClientID() string                  { return testClientID }
func (c testIdentityConfig) GetOIDCIssuer() string                { return testIssuer }
func (c testIdentityConfig) GetTokenRefreshMargin() time.Duration { return time.Minute }

// tokenEndpoint is a fake OAuth2 token endpoint that answers refresh grants.
type tokenEndpoint struct {
	lock     sync.Mutex
	requests []map[string]string
	server   *httptest.Server
	fail     bool
}

func newTokenEndpoint(t *testing.T) *tokenEndpoint {
	t.Helper()
	te := &tokenEndpoint{}
	te.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		te.lock.Lock()
		te.requests = append(te.requests, map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"refresh_token": r.PostForm.Get("refresh_token"),
			"client_id":     r.PostForm.Get("client_id"),
		})
		n := len(te.requests)
		fail := te.fail
		te.lock.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-" + string(rune('1'+n)),
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "rt-" + string(rune('1'+n)),
		})
	}))
	t.Cleanup(te.server.Close)
	return te
}

func (te *tokenEndpoint) calls() []map[string]string {
	te.lock.Lock()
	defer te.lock.Unlock()
	return append([]map[string]string(nil), te.requests...)
}

func newService(t *testing.T, te *tokenEndpoint, verifier *identity.Verifier) *identity.TokenService {
	t.Helper()
	return identity.NewTokenService(testIdentityConfig{tokenURL: te.server.URL}, verifier, zerolog.Nop())
}

func accessToken(t *testing.T, sub string, expiry time.Time, refresh string) *oauth2.Token {
	t.Helper()
	return &oauth2.Token{
		AccessToken:  signHS256(t, jwtlib.MapClaims{"sub": sub, "phone_number": "+911234567890"}),
		TokenType:    "Bearer",
		RefreshToken: refresh,
		Expiry:       expiry,
	}
}

func TestSignInReadsPrincipalFromAccessToken(t *testing.T) {
	s := newService(t, newTokenEndpoint(t), nil)

	p, err := s.SignIn(context.Background(), accessToken(t, "uid-1", time.Now().Add(time.Hour), "rt-1"))
	require.NoError(t, err)
	require.Equal(t, "uid-1", p.ID)
	require.Equal(t, "+911234567890", p.Phone)
	require.Equal(t, p, s.CurrentPrincipal())
}

func TestSignInPrefersIDToken(t *testing.T) {
	s := newService(t, newTokenEndpoint(t), nil)

	tok := accessToken(t, "uid-access", time.Now().Add(time.Hour), "")
	tok = tok.WithExtra(map[string]any{"id_token": signHS256(t, jwtlib.MapClaims{"sub": "uid-id"})})

	p, err := s.SignIn(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, "uid-id", p.ID)
}

func TestSignInRejectsEmptyToken(t *testing.T) {
	s := newService(t, newTokenEndpoint(t), nil)

	_, err := s.SignIn(context.Background(), &oauth2.Token{})
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	require.Nil(t, s.CurrentPrincipal())
}

func TestIssueTokenReturnsCurrentTokenWhileFresh(t *testing.T) {
	te := newTokenEndpoint(t)
	s := newService(t, te, nil)
	tok := accessToken(t, "uid-1", time.Now().Add(time.Hour), "rt-1")

	p, err := s.SignIn(context.Background(), tok)
	require.NoError(t, err)

	got, err := s.IssueToken(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, tok.AccessToken, got)
	require.Empty(t, te.calls())
}

func TestIssueTokenRefreshesInsideMargin(t *testing.T) {
	te := newTokenEndpoint(t)
	s := newService(t, te, nil)

	p, err := s.SignIn(context.Background(), accessToken(t, "uid-1", time.Now().Add(30*time.Second), "rt-1"))
	require.NoError(t, err)

	got, err := s.IssueToken(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, "access-2", got)

	// The refreshed token is valid for an hour, so it is reused.
	got, err = s.IssueToken(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, "access-2", got)

	calls := te.calls()
	require.Len(t, calls, 1)
	require.Equal(t, "refresh_token", calls[0]["grant_type"])
	require.Equal(t, "rt-1", calls[0]["refresh_token"])
	require.Equal(t, testClientID, calls[0]["client_id"])
}

func TestIssueTokenRefreshFailure(t *testing.T) {
	te := newTokenEndpoint(t)
	te.fail = true
	s := newService(t, te, nil)

	p, err := s.SignIn(context.Background(), accessToken(t, "uid-1", time.Now().Add(-time.Minute), "rt-1"))
	require.NoError(t, err)

	_, err = s.IssueToken(context.Background(), p)
	require.ErrorIs(t, err, apperrors.ErrTokenUnavailable)
}

func TestIssueTokenWithoutRefreshToken(t *testing.T) {
	s := newService(t, newTokenEndpoint(t), nil)

	p, err := s.SignIn(context.Background(), accessToken(t, "uid-1", time.Now().Add(-time.Minute), ""))
	require.NoError(t, err)

	_, err = s.IssueToken(context.Background(), p)
	require.ErrorIs(t, err, apperrors.ErrTokenUnavailable)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
}

func TestIssueTokenPrincipalChecks(t *testing.T) {
	s := newService(t, newTokenEndpoint(t), nil)

	_, err := s.IssueToken(context.Background(), &identity.Principal{ID: "uid-1"})
	require.ErrorIs(t, err, apperrors.ErrNoPrincipal)

	_, err = s.SignIn(context.Background(), accessToken(t, "uid-1", time.Now().Add(time.Hour), ""))
	require.NoError(t, err)

	_, err = s.IssueToken(context.Background(), &identity.Principal{ID: "someone-else"})
	require.ErrorIs(t, err, apperrors.ErrPrincipalMismatch)
}

func TestSignOutIsIdempotent(t *testing.T) {
	s := newService(t, newTokenEndpoint(t), nil)

	var notifications []*identity.Principal
	unsubscribe := s.OnPrincipalChanged(func(p *identity.Principal) {
		notifications = append(notifications, p)
	})
	defer unsubscribe()

	// Registration reports the current (empty) state straight away.
	require.Len(t, notifications, 1)
	require.Nil(t, notifications[0])

	_, err := s.SignIn(context.Background(), accessToken(t, "uid-1", time.Now().Add(time.Hour), ""))
	require.NoError(t, err)
	require.NoError(t, s.SignOut(context.Background()))
	require.NoError(t, s.SignOut(context.Background()))

	require.Len(t, notifications, 3)
	require.Equal(t, "uid-1", notifications[1].ID)
	require.Nil(t, notifications[2])
	require.Nil(t, s.CurrentPrincipal())

	_, err = s.IssueToken(context.Background(), nil)
	require.ErrorIs(t, err, apperrors.ErrNoPrincipal)
}

func TestSignInVerifiesIDToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	verifier := identity.NewStaticVerifier(testIssuer, testClientID, &key.PublicKey)
	s := newService(t, newTokenEndpoint(t), verifier)

	now := time.Now()
	signRS256 := func(claims jwtlib.MapClaims) string {
		raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)
		return raw
	}
	claims := jwtlib.MapClaims{
		"iss":   testIssuer,
		"aud":   testClientID,
		"sub":   "uid-verified",
		"email": "seller@example.com",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	tok := (&oauth2.Token{AccessToken: "opaque", Expiry: now.Add(time.Hour)}).
		WithExtra(map[string]any{"id_token": signRS256(claims)})
	p, err := s.SignIn(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, "uid-verified", p.ID)
	require.Equal(t, "seller@example.com", p.Email)

	t.Run("wrong issuer", func(t *testing.T) {
		bad := jwtlib.MapClaims{}
		for k, v := range claims {
			bad[k] = v
		}
		bad["iss"] = "https://evil.example.com"
		tok := (&oauth2.Token{AccessToken: "opaque"}).WithExtra(map[string]any{"id_token": signRS256(bad)})
		_, err := s.SignIn(context.Background(), tok)
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("missing id token", func(t *testing.T) {
		_, err := s.SignIn(context.Background(), &oauth2.Token{AccessToken: "opaque"})
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}

package identity

import (
	"context"
	"crypto"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-seller-client/internal/errors"
)

// Verifier checks ID token signatures, issuer and audience before the
// claims are trusted.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the issuer's keys through its OIDC discovery document.
func NewVerifier(ctx context.Context, issuerURL, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(verifierConfig(clientID))}, nil
}

// NewStaticVerifier verifies against a fixed set of public keys.
func NewStaticVerifier(issuerURL, clientID string, keys ...crypto.PublicKey) *Verifier {
	keySet := &oidc.StaticKeySet{PublicKeys: keys}
	return &Verifier{verifier: oidc.NewVerifier(issuerURL, keySet, verifierConfig(clientID))}
}

func verifierConfig(clientID string) *oidc.Config {
	return &oidc.Config{
		ClientID:          clientID,
		SkipClientIDCheck: clientID == "",
		Now:               func() time.Time { return NowTimeFunc() },
	}
}

// Verify validates rawIDToken and returns its claims.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (jwtlib.MapClaims, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}

	claims := jwtlib.MapClaims{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode ID token claims: %w", err)
	}
	return claims, nil
}

package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-seller-client/internal/errors"
)

// Principal is the signed-in identity as known to the identity provider.
// Values handed to listeners are never mutated afterwards.
type Principal struct {
	ID             string    `json:"uid"`                      // Provider user ID ("sub")
	Phone          string    `json:"phoneNumber,omitempty"`    // E.164 phone number for OTP accounts
	Email          string    `json:"email,omitempty"`          // Email for password accounts
	DisplayName    string    `json:"displayName,omitempty"`    // Display name, if the provider has one
	SignInProvider string    `json:"signInProvider,omitempty"` // "phone", "password", ...
	IssuedAt       time.Time `json:"-"`                        // iat of the token the principal was read from
	ExpiresAt      time.Time `json:"-"`                        // exp of the token the principal was read from
}

// ParseClaims reads the claims of a JWT without verifying its signature.
// Only use it for tokens that came straight from the token endpoint over TLS.
func ParseClaims(rawToken string) (jwtlib.MapClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}
	return claims, nil
}

// PrincipalFromClaims builds a Principal from ID token claims. "sub" is required.
func PrincipalFromClaims(claims jwtlib.MapClaims) (*Principal, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", apperrors.ErrInvalidToken)
	}

	phone, _ := claims["phone_number"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	var signInProvider string
	if fb, ok := claims["firebase"].(map[string]any); ok {
		signInProvider, _ = fb["sign_in_provider"].(string)
	}

	p := &Principal{
		ID:             sub,
		Phone:          phone,
		Email:          email,
		DisplayName:    name,
		SignInProvider: signInProvider,
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		p.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		p.ExpiresAt = exp.Time
	}
	return p, nil
}

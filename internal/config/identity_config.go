package config

import "time"

type IdentityConfig interface {
	GetTokenURL() string
	GetClientID() string
	GetOIDCIssuer() string
	GetTokenRefreshMargin() time.Duration
}

type Identity struct{}

var _ IdentityConfig = Identity{}

func (Identity) GetTokenURL() string {
	return GetEnv("TOKEN_URL", "https://securetoken.googleapis.com/v1/token")
}

func (Identity) GetClientID() string {
	return GetEnv("CLIENT_ID", "")
}

// GetOIDCIssuer returns the issuer used to verify ID tokens. Empty disables verification.
func (Identity) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (Identity) GetTokenRefreshMargin() time.Duration {
	return 1 * time.Minute
}

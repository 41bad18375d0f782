package identity

import "context"

// Provider issues short-lived bearer tokens for the signed-in principal.
// It owns the session; callers never keep their own copy of a token.
type Provider interface {
	// CurrentPrincipal returns the signed-in principal or nil.
	CurrentPrincipal() *Principal

	// IssueToken returns a bearer token for p, refreshing it if needed.
	// It may block on a network round trip.
	IssueToken(ctx context.Context, p *Principal) (string, error)

	// SignOut clears the local session. Signing out twice is a no-op.
	SignOut(ctx context.Context) error

	// OnPrincipalChanged registers fn, calls it with the current principal
	// and again on every sign-in or sign-out.
	OnPrincipalChanged(fn func(*Principal)) (unsubscribe func())
}

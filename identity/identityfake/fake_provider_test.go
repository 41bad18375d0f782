package identityfake_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/go-seller-client/identity"
	"github.com/jrsteele09/go-seller-client/identity/identityfake"
	apperrors "github.com/jrsteele09/go-seller-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestEmailAccounts(t *testing.T) {
	fp := identityfake.NewFakeProvider()

	registered, err := fp.RegisterEmail("seller@example.com", "Password123")
	require.NoError(t, err)
	require.Equal(t, "password", registered.SignInProvider)
	require.NoError(t, fp.SignOut(context.Background()))

	_, err = fp.SignInWithEmail("seller@example.com", "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = fp.SignInWithEmail("nobody@example.com", "Password123")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	p, err := fp.SignInWithEmail("seller@example.com", "Password123")
	require.NoError(t, err)
	require.Equal(t, registered.ID, p.ID)
	require.Equal(t, p.ID, fp.CurrentPrincipal().ID)
}

func TestPhoneOTP(t *testing.T) {
	fp := identityfake.NewFakeProvider()

	_, err := fp.VerifyOTP("123456")
	require.ErrorIs(t, err, apperrors.ErrOTPNotRequested)

	code, err := fp.SendOTP("+919999999999")
	require.NoError(t, err)
	require.Len(t, code, 6)

	_, err = fp.VerifyOTP("not-the-code")
	require.ErrorIs(t, err, apperrors.ErrInvalidOTP)

	p, err := fp.VerifyOTP(code)
	require.NoError(t, err)
	require.Equal(t, "+919999999999", p.Phone)

	// The confirmation is consumed; the same phone maps to the same principal.
	_, err = fp.VerifyOTP(code)
	require.ErrorIs(t, err, apperrors.ErrOTPNotRequested)
	code, err = fp.SendOTP("+919999999999")
	require.NoError(t, err)
	again, err := fp.VerifyOTP(code)
	require.NoError(t, err)
	require.Equal(t, p.ID, again.ID)
}

func TestIssueTokenRotates(t *testing.T) {
	fp := identityfake.NewFakeProvider()
	ctx := context.Background()

	_, err := fp.IssueToken(ctx, nil)
	require.ErrorIs(t, err, apperrors.ErrNoPrincipal)

	p := fp.SignInAs(identity.Principal{ID: "uid-1"})
	first, err := fp.IssueToken(ctx, p)
	require.NoError(t, err)
	second, err := fp.IssueToken(ctx, p)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.Equal(t, second, fp.LastToken())
	require.Equal(t, 2, fp.IssuedCount())

	boom := errors.New("boom")
	fp.SetTokenError(boom)
	_, err = fp.IssueToken(ctx, p)
	require.ErrorIs(t, err, boom)
}

func TestSignOutCountsOnce(t *testing.T) {
	fp := identityfake.NewFakeProvider()
	var seen []*identity.Principal
	unsubscribe := fp.OnPrincipalChanged(func(p *identity.Principal) { seen = append(seen, p) })
	defer unsubscribe()

	fp.SignInAs(identity.Principal{ID: "uid-1"})
	require.NoError(t, fp.SignOut(context.Background()))
	require.NoError(t, fp.SignOut(context.Background()))

	require.Equal(t, 1, fp.SignOutCount())
	require.Len(t, seen, 3)
	require.Nil(t, seen[2])
}

package jwtx_test

import (
	"testing"
	"time"

	"github.com/loancollect/ldts/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims(
		"01JABCDEF000000000000000PR",
		"jane@gmail.com",
		"MD",
		time.Minute,
		"ldts",
		time.Now(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	verifier := jwtx.NewVerifier(signer.Public(), "ldts")
	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "01JABCDEF000000000000000PR", got.Subject)
	require.Equal(t, "jane@gmail.com", got.Email)
	require.Equal(t, "MD", got.Role)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)
	other, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewAccessClaims("sub", "a@b.c", "", time.Minute, "ldts", time.Now()))
	require.NoError(t, err)

	_, err = jwtx.NewVerifier(other.Public(), "ldts").Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)

	stale := jwtx.NewAccessClaims("sub", "a@b.c", "SD", time.Minute, "ldts", time.Now().Add(-time.Hour))
	token, err := signer.Sign(stale)
	require.NoError(t, err)

	_, err = jwtx.NewVerifier(signer.Public(), "ldts").Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewAccessClaims("sub", "a@b.c", "", time.Minute, "someone-else", time.Now()))
	require.NoError(t, err)

	_, err = jwtx.NewVerifier(signer.Public(), "ldts").Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

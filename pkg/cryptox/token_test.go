package cryptox_test

import (
	"testing"

	"github.com/loancollect/ldts/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	tok, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.Len(t, tok, 43)

	other, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.NotEqual(t, tok, other)

	_, err = cryptox.GenerateToken(0)
	require.Error(t, err)
}

func TestFingerprintTokenIsDeterministic(t *testing.T) {
	t.Parallel()

	fp := cryptox.FingerprintToken("some-refresh-token")
	require.Equal(t, fp, cryptox.FingerprintToken("some-refresh-token"))
	require.NotEqual(t, fp, cryptox.FingerprintToken("another-token"))
	require.Len(t, fp, 43)
}

func TestGenerateNumericCode(t *testing.T) {
	t.Parallel()

	code, err := cryptox.GenerateNumericCode(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	require.Regexp(t, "^[0-9]{6}$", code)

	_, err = cryptox.GenerateNumericCode(0)
	require.Error(t, err)
}

package credstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	s := New(filepath.Join(t.TempDir(), "nested", "token.json"))

	token, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, token)

	require.NoError(t, s.Save("tok-123"))

	token, err = s.Load()
	require.NoError(t, err)
	require.Equal(t, "tok-123", token)

	require.NoError(t, s.Clear())

	token, err = s.Load()
	require.NoError(t, err)
	require.Empty(t, token)

	// Clearing an already absent credential is a no-op.
	require.NoError(t, s.Clear())
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "exam.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, "language")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "language", "uz-latn"))
	require.NoError(t, s.Set(ctx, "language", "uz-cyrl"))
	v, ok, err := s.Get(ctx, "language")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "uz-cyrl", v)
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err = reopened.Get(ctx, "language")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "uz-cyrl", v)

	require.NoError(t, reopened.Remove(ctx, "language"))
	_, ok, err = reopened.Get(ctx, "language")
	require.NoError(t, err)
	require.False(t, ok)
}

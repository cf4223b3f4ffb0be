package memory

import (
	"context"
	"testing"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	blob, err := core.NewBlob("f.txt", []byte("content"))
	require.NoError(t, err)
	commit, err := core.NewInitialCommit()
	require.NoError(t, err)

	for _, obj := range []core.Object{blob, commit} {
		require.NoError(t, s.Put(ctx, obj))
		require.NoError(t, s.Put(ctx, obj))

		data, err := storage.ReadAll(ctx, s, obj.ID())
		require.NoError(t, err)
		assert.Equal(t, obj.Bytes(), data)
	}
	assert.Equal(t, 2, s.Len())

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ExpandHash(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	blob, err := core.NewBlob("f.txt", []byte("content"))
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, blob))

	got, err := s.ExpandHash(ctx, types.HashPrefix(blob.ID()[:8]))
	require.NoError(t, err)
	assert.Equal(t, blob.ID(), got)

	_, err = s.ExpandHash(ctx, "ab")
	assert.ErrorIs(t, err, storage.ErrPrefixTooShort)
}

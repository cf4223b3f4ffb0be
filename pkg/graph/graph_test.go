package graph

import (
	"context"
	"testing"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/storage/memory"
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 单调递增的假时钟，保证相同内容的两个提交也有不同 ID
func fakeClock() func() time.Time {
	t := time.UnixMilli(1700000000000)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

type recordingIndexer struct {
	ids []types.Hash
}

func (r *recordingIndexer) IndexCommit(ctx context.Context, c *core.Commit) error {
	r.ids = append(r.ids, c.ID())
	return nil
}

func newGraph(t *testing.T) (*Graph, *core.Commit) {
	t.Helper()
	g := New(memory.NewStore(), WithClock(fakeClock()))
	root, err := core.NewInitialCommit()
	require.NoError(t, err)
	require.NoError(t, g.Persist(context.Background(), root))
	return g, root
}

func TestCreateAndResolve(t *testing.T) {
	ctx := context.Background()
	idx := &recordingIndexer{}
	g := New(memory.NewStore(), WithClock(fakeClock()), WithIndexer(idx))

	root, err := core.NewInitialCommit()
	require.NoError(t, err)
	require.NoError(t, g.Persist(ctx, root))

	snap := core.Snapshot{"a.txt": "aaaa"}
	c, err := g.Create(ctx, snap, root.ID(), "first", "")
	require.NoError(t, err)

	got, err := g.Resolve(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, c.ID(), got.ID())
	assert.Equal(t, snap, got.Snapshot())
	assert.Equal(t, root.ID(), got.ParentID())
	assert.Equal(t, []types.Hash{root.ID(), c.ID()}, idx.ids)

	_, err = g.Resolve(ctx, "ffff000000000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, vcserr.ErrUnknownCommit)
}

func TestResolvePrefix(t *testing.T) {
	ctx := context.Background()
	g, root := newGraph(t)

	id, err := g.ResolvePrefix(ctx, types.HashPrefix(root.ID()[:6]))
	require.NoError(t, err)
	assert.Equal(t, root.ID(), id)

	_, err = g.ResolvePrefix(ctx, "zzzzzz")
	assert.ErrorIs(t, err, vcserr.ErrUnknownCommit)

	// 命中 blob 不算提交
	blob, err := core.NewBlob("x", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, g.Store().Put(ctx, blob))
	_, err = g.ResolvePrefix(ctx, types.HashPrefix(blob.ID()))
	assert.ErrorIs(t, err, vcserr.ErrUnknownCommit)
}

// ambiguousStore 让任何前缀都命中多个对象
type ambiguousStore struct {
	*memory.Store
}

func (ambiguousStore) ExpandHash(ctx context.Context, short types.HashPrefix) (types.Hash, error) {
	return "", storage.ErrAmbiguousHash
}

func TestResolvePrefix_Ambiguous(t *testing.T) {
	g := New(ambiguousStore{memory.NewStore()})

	_, err := g.ResolvePrefix(context.Background(), "abcd")
	assert.ErrorIs(t, err, vcserr.ErrAmbiguousID)
	assert.Equal(t, vcserr.KindRepositoryState, vcserr.KindOf(err))
}

func TestAncestorsViaFirstParent(t *testing.T) {
	ctx := context.Background()
	g, root := newGraph(t)

	a, err := g.Create(ctx, core.Snapshot{}, root.ID(), "a", "")
	require.NoError(t, err)
	side, err := g.Create(ctx, core.Snapshot{}, root.ID(), "side", "")
	require.NoError(t, err)
	m, err := g.Create(ctx, core.Snapshot{}, a.ID(), "merge", side.ID())
	require.NoError(t, err)

	set, err := g.AncestorsViaFirstParent(ctx, m.ID())
	require.NoError(t, err)
	assert.True(t, set.Contains(m.ID(), a.ID(), root.ID()))
	assert.False(t, set.Contains(side.ID()), "second parent must not be followed")
	assert.Equal(t, 3, set.Cardinality())

	ok, err := g.IsAncestor(ctx, a.ID(), m.ID())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.IsAncestor(ctx, side.ID(), m.ID())
	require.NoError(t, err)
	assert.False(t, ok)

	chain, err := g.FirstParentChain(ctx, m.ID())
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, "merge", chain[0].Message)
	assert.True(t, chain[2].IsRoot())
}

func TestReachable(t *testing.T) {
	ctx := context.Background()
	g, root := newGraph(t)

	a, err := g.Create(ctx, core.Snapshot{}, root.ID(), "a", "")
	require.NoError(t, err)
	side, err := g.Create(ctx, core.Snapshot{}, root.ID(), "side", "")
	require.NoError(t, err)
	m, err := g.Create(ctx, core.Snapshot{}, a.ID(), "merge", side.ID())
	require.NoError(t, err)

	all, err := g.Reachable(ctx, m.ID(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	// 遇到 root 就停
	pruned, err := g.Reachable(ctx, m.ID(), func(h types.Hash) (bool, error) {
		return h != root.ID(), nil
	})
	require.NoError(t, err)
	assert.Len(t, pruned, 3)
}

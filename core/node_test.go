package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapeqio/mapeq/core"
)

func TestAddChild_SetsParentAndIndex(t *testing.T) {
	t.Parallel()

	root := core.NewNode(core.FlowData{})
	x := core.NewNode(core.FlowData{Flow: 0.6})
	y := core.NewNode(core.FlowData{Flow: 0.4})

	require.NoError(t, root.AddChild(x))
	require.NoError(t, root.AddChild(y))

	assert.Equal(t, root, x.Parent())
	assert.Equal(t, 0, x.Index)
	assert.Equal(t, 1, y.Index)
	assert.False(t, root.IsLeaf())
	assert.True(t, x.IsLeaf())
}

func TestAddChild_NilError(t *testing.T) {
	t.Parallel()

	root := core.NewNode(core.FlowData{})
	err := root.AddChild(nil)
	require.ErrorIs(t, err, core.ErrNilNode)
}

func TestLeaves_FlattensHierarchy(t *testing.T) {
	t.Parallel()

	root := core.NewNode(core.FlowData{})
	modA := core.NewNode(core.FlowData{})
	modB := core.NewNode(core.FlowData{})
	require.NoError(t, root.AddChild(modA))
	require.NoError(t, root.AddChild(modB))

	x := core.NewNode(core.FlowData{Flow: 0.3})
	y := core.NewNode(core.FlowData{Flow: 0.3})
	z := core.NewNode(core.FlowData{Flow: 0.4})
	require.NoError(t, modA.AddChild(x))
	require.NoError(t, modA.AddChild(y))
	require.NoError(t, modB.AddChild(z))

	leaves := root.Leaves(nil)
	require.Len(t, leaves, 3)
	assert.Same(t, x, leaves[0])
	assert.Same(t, y, leaves[1])
	assert.Same(t, z, leaves[2])
}

func TestReindex_AfterManualRemoval(t *testing.T) {
	t.Parallel()

	root := core.NewNode(core.FlowData{})
	a := core.NewNode(core.FlowData{})
	b := core.NewNode(core.FlowData{})
	c := core.NewNode(core.FlowData{})
	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(b))
	require.NoError(t, root.AddChild(c))

	// Simulate removing b by rebuilding the child slice directly, then
	// ask Reindex to fix up Index.
	kept := []*core.Node{a, c}
	root2 := core.NewNode(core.FlowData{})
	for _, n := range kept {
		require.NoError(t, root2.AddChild(n))
	}
	for _, n := range kept {
		n.Index = -1 // stale
	}
	root2.Reindex()

	assert.Equal(t, 0, a.Index)
	assert.Equal(t, 1, c.Index)
}

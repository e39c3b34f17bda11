package metaset_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapeqio/mapeq/metaset"
)

func TestEntropy_ThreeLeavesTwoTags(t *testing.T) {
	t.Parallel()

	// Three leaves with tags {A,A,B}, unit weights, from the spec's
	// worked scenario: H = -(2/3)log2(2/3) - (1/3)log2(1/3) ~= 0.9183.
	c := metaset.New()
	c.Add("A", 1)
	c.Add("A", 1)
	c.Add("B", 1)

	want := -(2.0/3.0)*math.Log2(2.0/3.0) - (1.0/3.0)*math.Log2(1.0/3.0)
	assert.InDelta(t, want, c.Entropy(), 1e-9)
}

func TestEntropy_Empty(t *testing.T) {
	t.Parallel()

	c := metaset.New()
	assert.Equal(t, 0.0, c.Entropy())
}

func TestAddRemove_IsExactInverse(t *testing.T) {
	t.Parallel()

	base := metaset.New()
	base.Add("A", 0.6)
	base.Add("B", 0.4)

	snapshot := base.Clone()

	delta := metaset.New()
	delta.Add("A", 0.3)
	delta.Add("C", 0.1)

	base.AddCollection(delta)
	require.NoError(t, base.RemoveCollection(delta))

	assert.True(t, base.Equal(snapshot, 1e-15), "remove must exactly invert add")
}

func TestRemoveCollection_UnknownTag(t *testing.T) {
	t.Parallel()

	base := metaset.New()
	base.Add("A", 1)

	other := metaset.New()
	other.Add("Z", 1)

	err := base.RemoveCollection(other)
	require.ErrorIs(t, err, metaset.ErrUnknownTag)
}

func TestClone_Independent(t *testing.T) {
	t.Parallel()

	c := metaset.New()
	c.Add("A", 1)

	clone := c.Clone()
	clone.Add("A", 1)

	assert.InDelta(t, 1.0, c.Total(), 1e-15)
	assert.InDelta(t, 2.0, clone.Total(), 1e-15)
}

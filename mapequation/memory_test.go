package mapequation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapeqio/mapeq/core"
	"github.com/mapeqio/mapeq/mapequation"
)

func newInitializedMemory(t *testing.T, root *core.Node, active []*core.Node) *mapequation.Memory {
	t.Helper()
	m := mapequation.NewMemory()
	require.NoError(t, m.Init(mapequation.Config{}))
	require.NoError(t, m.InitPhysicalNodes(root))
	require.NoError(t, m.InitNetwork(root))
	require.NoError(t, m.InitPartition(active))
	require.NoError(t, m.SeedPhysicalContributions(active))
	return m
}

func TestMemory_InitPhysicalNodes_SeedsSelfContribution(t *testing.T) {
	t.Parallel()

	root := core.NewNode(core.FlowData{})
	a := core.NewNode(core.FlowData{Flow: 0.3, EnterFlow: 0.1, ExitFlow: 0.1})
	a.PhysicalID = 7
	b := core.NewNode(core.FlowData{Flow: 0.2, EnterFlow: 0.1, ExitFlow: 0.1})
	b.PhysicalID = 7
	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(b))

	m := mapequation.NewMemory()
	require.NoError(t, m.Init(mapequation.Config{}))
	require.NoError(t, m.InitPhysicalNodes(root))

	require.Len(t, a.PhysicalNodes, 1)
	require.Len(t, b.PhysicalNodes, 1)
	assert.Equal(t, a.PhysicalNodes[0].PhysNodeIndex, b.PhysicalNodes[0].PhysNodeIndex)
	assert.InDelta(t, 0.3, a.PhysicalNodes[0].SumFlowFromM2Node, 1e-12)
	assert.InDelta(t, 0.2, b.PhysicalNodes[0].SumFlowFromM2Node, 1e-12)
}

// TestMemory_PhysicalOverlap_MergeAccounting exercises spec's worked
// scenario: two state-nodes sharing physical id 7 in two different
// modules, each contributing sumFlowFromM2Node=0.1. After the merge, the
// surviving module, read back through ConsolidateModules, must hold a
// single physical entry with sumFlow=0.2.
func TestMemory_PhysicalOverlap_MergeAccounting(t *testing.T) {
	t.Parallel()

	root := core.NewNode(core.FlowData{})
	x := core.NewNode(core.FlowData{Flow: 0.5, EnterFlow: 0.2, ExitFlow: 0.2})
	x.PhysicalID = 7
	x.PhysicalNodes = []core.PhysData{{PhysNodeIndex: 0, SumFlowFromM2Node: 0.1}}
	y := core.NewNode(core.FlowData{Flow: 0.5, EnterFlow: 0.2, ExitFlow: 0.2})
	y.PhysicalID = 7
	y.PhysicalNodes = []core.PhysData{{PhysNodeIndex: 0, SumFlowFromM2Node: 0.1}}
	require.NoError(t, root.AddChild(x))
	require.NoError(t, root.AddChild(y))

	m := mapequation.NewMemory()
	require.NoError(t, m.Init(mapequation.Config{}))
	require.NoError(t, m.InitNetwork(root))
	require.NoError(t, m.InitPartition([]*core.Node{x, y}))
	require.NoError(t, m.SeedPhysicalContributions([]*core.Node{x, y}))

	moduleFlow := []core.FlowData{x.Data, y.Data}
	moduleMembers := []int{1, 1}

	oldDelta := core.DeltaFlow{Module: 1}
	newDelta := core.DeltaFlow{Module: 0}
	modulesDelta := map[int]*core.DeltaFlow{}
	require.NoError(t, m.AddMemoryContributions(y, &oldDelta, modulesDelta))
	if d, ok := modulesDelta[newDelta.Module]; ok {
		newDelta.SumDeltaPlogpPhysFlow = d.SumDeltaPlogpPhysFlow
		newDelta.SumPlogpPhysFlow = d.SumPlogpPhysFlow
	}

	require.NoError(t, m.Update(y, oldDelta, newDelta, moduleFlow, moduleMembers))

	// Rebuild module 0's PhysicalNodes via consolidation to inspect the
	// merged overlap set directly.
	merged := core.NewNode(moduleFlow[0])
	require.NoError(t, m.ConsolidateModules([]*core.Node{merged}))

	require.Len(t, merged.PhysicalNodes, 1)
	assert.InDelta(t, 0.2, merged.PhysicalNodes[0].SumFlowFromM2Node, 1e-12)
}

func TestMemory_DeltaUpdateConsistency_NoOverlap(t *testing.T) {
	t.Parallel()

	root := core.NewNode(core.FlowData{})
	x := core.NewNode(core.FlowData{Flow: 0.6, EnterFlow: 0.2, ExitFlow: 0.2})
	x.PhysicalID = 1
	y := core.NewNode(core.FlowData{Flow: 0.4, EnterFlow: 0.3, ExitFlow: 0.3})
	y.PhysicalID = 2
	require.NoError(t, root.AddChild(x))
	require.NoError(t, root.AddChild(y))

	m := mapequation.NewMemory()
	require.NoError(t, m.Init(mapequation.Config{}))
	require.NoError(t, m.InitPhysicalNodes(root))
	require.NoError(t, m.InitNetwork(root))
	require.NoError(t, m.InitPartition([]*core.Node{x, y}))
	require.NoError(t, m.SeedPhysicalContributions([]*core.Node{x, y}))

	moduleFlow := []core.FlowData{x.Data, y.Data}
	moduleMembers := []int{1, 1}
	before := m.Codelength()

	oldDelta := core.DeltaFlow{Module: 1}
	newDelta := core.DeltaFlow{Module: 0}

	delta, err := m.DeltaCodelength(y, oldDelta, newDelta, moduleFlow, moduleMembers)
	require.NoError(t, err)

	require.NoError(t, m.Update(y, oldDelta, newDelta, moduleFlow, moduleMembers))
	after := m.Codelength()

	assert.InDelta(t, delta, after-before, 1e-9)
}

func TestMemory_DeltaCodelength_DoesNotMutateOverlapMap(t *testing.T) {
	t.Parallel()

	root := core.NewNode(core.FlowData{})
	x := core.NewNode(core.FlowData{Flow: 0.5, EnterFlow: 0.2, ExitFlow: 0.2})
	x.PhysicalID = 7
	x.PhysicalNodes = []core.PhysData{{PhysNodeIndex: 0, SumFlowFromM2Node: 0.1}}
	y := core.NewNode(core.FlowData{Flow: 0.5, EnterFlow: 0.2, ExitFlow: 0.2})
	y.PhysicalID = 7
	y.PhysicalNodes = []core.PhysData{{PhysNodeIndex: 0, SumFlowFromM2Node: 0.1}}
	require.NoError(t, root.AddChild(x))
	require.NoError(t, root.AddChild(y))

	m := newInitializedMemory(t, root, []*core.Node{x, y})
	moduleFlow := []core.FlowData{x.Data, y.Data}
	moduleMembers := []int{1, 1}
	before := m.Codelength()

	oldDelta := core.DeltaFlow{Module: 1}
	newDelta := core.DeltaFlow{Module: 0}
	d1, err := m.DeltaCodelength(y, oldDelta, newDelta, moduleFlow, moduleMembers)
	require.NoError(t, err)
	d2, err := m.DeltaCodelength(y, oldDelta, newDelta, moduleFlow, moduleMembers)
	require.NoError(t, err)

	assert.InDelta(t, d1, d2, 1e-15)
	assert.Equal(t, before, m.Codelength())

	// The overlap map is read back through consolidation: each module
	// still holds only its own seeded contribution.
	modX, modY := core.NewNode(moduleFlow[0]), core.NewNode(moduleFlow[1])
	require.NoError(t, m.ConsolidateModules([]*core.Node{modX, modY}))
	require.Len(t, modX.PhysicalNodes, 1)
	require.Len(t, modY.PhysicalNodes, 1)
	assert.InDelta(t, 0.1, modX.PhysicalNodes[0].SumFlowFromM2Node, 1e-15)
	assert.InDelta(t, 0.1, modY.PhysicalNodes[0].SumFlowFromM2Node, 1e-15)
}

func TestMemory_HaveMemory(t *testing.T) {
	t.Parallel()
	m := mapequation.NewMemory()
	assert.True(t, m.HaveMemory())
}

func TestMemory_ConsolidateModules_NilError(t *testing.T) {
	t.Parallel()
	m := mapequation.NewMemory()
	require.NoError(t, m.Init(mapequation.Config{}))
	err := m.ConsolidateModules([]*core.Node{nil})
	require.Error(t, err)
}

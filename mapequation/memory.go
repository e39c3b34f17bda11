// File: memory.go
// Role: the memory (higher-order) map equation — a decorator over *Base
// that layers per-physical-node overlap accounting across modules on top
// of the base algebra, rather than reimplementing it.
package mapequation

import (
	"fmt"

	"github.com/mapeqio/mapeq/core"
	"github.com/mapeqio/mapeq/mapmath"
)

// MemNodeSet is the per-(physical index, module) overlap record: how many
// state nodes sharing this physical id currently live in this module, and
// their combined contributed flow.
type MemNodeSet struct {
	NumMemNodes int
	SumFlow     float64
}

// Memory implements the higher-order map equation by embedding a *Base
// and layering one extra term, m_physToModuleToMemNodes in spec parlance,
// on top of it: physToModuleToMemNodes[physIndex][moduleIndex] tracks how
// much of physical node physIndex's flow currently sits in each module.
type Memory struct {
	base *Base

	physToModuleToMemNodes map[int]map[int]*MemNodeSet
	nextPhysIndex          int
}

// NewMemory returns a zero-valued Memory, ready for Init.
func NewMemory() *Memory {
	return &Memory{base: NewBase(), physToModuleToMemNodes: make(map[int]map[int]*MemNodeSet)}
}

// Init resets both the embedded Base and the overlap map.
func (m *Memory) Init(cfg Config) error {
	m.physToModuleToMemNodes = make(map[int]map[int]*MemNodeSet)
	m.nextPhysIndex = 0
	return m.base.Init(cfg)
}

// InitPhysicalNodes re-indexes physical ids densely and seeds each leaf's
// PhysicalNodes with a single self-contribution. On the first call it
// reindexes PhysicalID across all of root's leaves; on later calls (a
// sub-network re-entry) it re-indexes whatever PhysicalNodes entries are
// already present, leaving PhysicalID-derived identity alone.
func (m *Memory) InitPhysicalNodes(root *core.Node) error {
	if root == nil {
		return core.ErrNilNode
	}
	leaves := root.Leaves(nil)
	if len(leaves) == 0 {
		return core.ErrEmptyPhysIndex
	}

	if m.nextPhysIndex == 0 && allPhysicalNodesEmpty(leaves) {
		dense := make(map[int]int)
		for _, leaf := range leaves {
			idx, ok := dense[leaf.PhysicalID]
			if !ok {
				idx = len(dense)
				dense[leaf.PhysicalID] = idx
			}
			leaf.PhysicalNodes = []core.PhysData{{PhysNodeIndex: idx, SumFlowFromM2Node: leaf.Data.Flow}}
		}
		m.nextPhysIndex = len(dense)
		return nil
	}

	dense := make(map[int]int)
	for _, leaf := range leaves {
		for i := range leaf.PhysicalNodes {
			old := leaf.PhysicalNodes[i].PhysNodeIndex
			idx, ok := dense[old]
			if !ok {
				idx = len(dense)
				dense[old] = idx
			}
			leaf.PhysicalNodes[i].PhysNodeIndex = idx
		}
	}
	m.nextPhysIndex = len(dense)
	return nil
}

func allPhysicalNodesEmpty(leaves []*core.Node) bool {
	for _, leaf := range leaves {
		if len(leaf.PhysicalNodes) > 0 {
			return false
		}
	}
	return true
}

// SeedPhysicalContributions bootstraps physToModuleToMemNodes from
// active's initial (singleton) module assignment, where moduleIndex equals
// each node's position in active. Spec leaves the map's initial
// population implicit; a driver must call this once, right after
// InitPartition and InitPhysicalNodes, before the first
// AddMemoryContributions/Update call.
func (m *Memory) SeedPhysicalContributions(active []*core.Node) error {
	for moduleIndex, node := range active {
		if node == nil {
			return core.ErrNilNode
		}
		for _, physData := range node.PhysicalNodes {
			set := m.entry(physData.PhysNodeIndex, moduleIndex)
			set.NumMemNodes++
			set.SumFlow += physData.SumFlowFromM2Node
		}
	}
	return nil
}

func (m *Memory) entry(physIndex, moduleIndex int) *MemNodeSet {
	byModule, ok := m.physToModuleToMemNodes[physIndex]
	if !ok {
		byModule = make(map[int]*MemNodeSet)
		m.physToModuleToMemNodes[physIndex] = byModule
	}
	set, ok := byModule[moduleIndex]
	if !ok {
		set = &MemNodeSet{}
		byModule[moduleIndex] = set
	}
	return set
}

// InitNetwork, InitSuperNetwork, InitSubNetwork and InitPartition delegate
// directly to the embedded Base: memory adds no extra network-level
// constant, only per-move bookkeeping.
func (m *Memory) InitNetwork(root *core.Node) error      { return m.base.InitNetwork(root) }
func (m *Memory) InitSuperNetwork(root *core.Node) error { return m.base.InitSuperNetwork(root) }
func (m *Memory) InitSubNetwork(root *core.Node) error   { return m.base.InitSubNetwork(root) }
func (m *Memory) InitPartition(active []*core.Node) error {
	return m.base.InitPartition(active)
}

// CalcCodelength delegates to Base's dispatch, except that a module
// carrying a populated PhysicalNodes list computes its leaf-codebook
// entropy over physical contributions instead of child flows.
func (m *Memory) CalcCodelength(parent *core.Node) float64 {
	if parent != nil && len(parent.PhysicalNodes) > 0 {
		return m.calcCodelengthOverPhysicalNodes(parent)
	}
	return m.base.CalcCodelength(parent)
}

func (m *Memory) calcCodelengthOverPhysicalNodes(parent *core.Node) float64 {
	total := parent.Data.Flow + parent.Data.ExitFlow
	if total < 1e-16 {
		return 0
	}
	var sum float64
	for _, pd := range parent.PhysicalNodes {
		sum -= mapmath.Plogp(pd.SumFlowFromM2Node / total)
	}
	sum -= mapmath.Plogp(parent.Data.ExitFlow / total)
	return total * sum
}

// AddMemoryContributions scans current's PhysicalNodes against the
// overlap map and distributes the extra plogp terms: the source module's
// (oldDelta.Module) share accumulates directly into oldDelta, every other
// touched module's share accumulates into modulesDelta, keyed by module
// index, for the driver to fold into its own per-module delta record
// (including, eventually, newDelta for the destination module).
func (m *Memory) AddMemoryContributions(current *core.Node, oldDelta *core.DeltaFlow, modulesDelta map[int]*core.DeltaFlow) error {
	if current == nil || oldDelta == nil {
		return core.ErrNilNode
	}
	for _, physData := range current.PhysicalNodes {
		byModule, ok := m.physToModuleToMemNodes[physData.PhysNodeIndex]
		if !ok {
			continue
		}
		for moduleIndex, set := range byModule {
			if moduleIndex == oldDelta.Module {
				oldDelta.SumDeltaPlogpPhysFlow += mapmath.Plogp(set.SumFlow-physData.SumFlowFromM2Node) - mapmath.Plogp(set.SumFlow)
				oldDelta.SumPlogpPhysFlow += mapmath.Plogp(physData.SumFlowFromM2Node)
				continue
			}
			d, ok := modulesDelta[moduleIndex]
			if !ok {
				d = &core.DeltaFlow{Module: moduleIndex}
				modulesDelta[moduleIndex] = d
			}
			d.SumDeltaPlogpPhysFlow += mapmath.Plogp(set.SumFlow+physData.SumFlowFromM2Node) - mapmath.Plogp(set.SumFlow)
			d.SumPlogpPhysFlow += mapmath.Plogp(physData.SumFlowFromM2Node)
		}
	}
	return nil
}

// memoryDelta is the oldDelta/newDelta-derived extra term common to
// DeltaCodelength and Update, per spec's delta formula.
func memoryDelta(oldDelta, newDelta core.DeltaFlow) float64 {
	return oldDelta.SumDeltaPlogpPhysFlow + newDelta.SumDeltaPlogpPhysFlow + oldDelta.SumPlogpPhysFlow - newDelta.SumPlogpPhysFlow
}

// DeltaCodelength returns the base delta minus the memory overlap term,
// without mutating either the embedded Base or the overlap map.
func (m *Memory) DeltaCodelength(node *core.Node, oldDelta, newDelta core.DeltaFlow, moduleFlow []core.FlowData, moduleMembers []int) (float64, error) {
	baseDelta, err := m.base.DeltaCodelength(node, oldDelta, newDelta, moduleFlow, moduleMembers)
	if err != nil {
		return 0, err
	}
	return baseDelta - memoryDelta(oldDelta, newDelta), nil
}

// Update applies the base update, then folds the memory overlap term into
// nodeFlowLogNodeFlow/moduleCodelength/codelength and moves node's
// physical contributions from oldDelta.Module to newDelta.Module in the
// overlap map.
func (m *Memory) Update(node *core.Node, oldDelta, newDelta core.DeltaFlow, moduleFlow []core.FlowData, moduleMembers []int) error {
	if err := m.base.Update(node, oldDelta, newDelta, moduleFlow, moduleMembers); err != nil {
		return err
	}
	delta := memoryDelta(oldDelta, newDelta)
	m.base.nodeFlowLogNodeFlow += delta
	m.base.moduleCodelength -= delta
	m.base.codelength -= delta

	for _, physData := range node.PhysicalNodes {
		if err := m.moveContribution(physData.PhysNodeIndex, oldDelta.Module, newDelta.Module, physData.SumFlowFromM2Node); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) moveContribution(physIndex, fromModule, toModule int, flow float64) error {
	byModule, ok := m.physToModuleToMemNodes[physIndex]
	if !ok {
		return core.ErrMissingModuleEntry
	}
	from, ok := byModule[fromModule]
	if !ok {
		return core.ErrMissingModuleEntry
	}
	from.NumMemNodes--
	from.SumFlow -= flow
	if from.NumMemNodes <= 0 {
		delete(byModule, fromModule)
	}

	to, ok := byModule[toModule]
	if !ok {
		to = &MemNodeSet{}
		byModule[toModule] = to
	}
	to.NumMemNodes++
	to.SumFlow += flow
	return nil
}

// ConsolidateModules writes the final per-module, per-physical sumFlow
// values onto modules[i].PhysicalNodes (i being the module index), then
// delegates to Base's consolidation. Each (module, physIndex) pair is
// guaranteed unique by the map's own shape; the explicit check below
// guards against a future refactor silently breaking that invariant.
func (m *Memory) ConsolidateModules(modules []*core.Node) error {
	byModuleIndex := make(map[int][]core.PhysData)
	seen := make(map[[2]int]bool)
	for physIndex, byModule := range m.physToModuleToMemNodes {
		for moduleIndex, set := range byModule {
			key := [2]int{moduleIndex, physIndex}
			if seen[key] {
				return core.ErrDuplicatePhysIndex
			}
			seen[key] = true
			byModuleIndex[moduleIndex] = append(byModuleIndex[moduleIndex], core.PhysData{
				PhysNodeIndex:     physIndex,
				SumFlowFromM2Node: set.SumFlow,
			})
		}
	}
	for i, mod := range modules {
		if mod == nil {
			return fmt.Errorf("mapequation: %w", core.ErrNilNode)
		}
		mod.PhysicalNodes = byModuleIndex[i]
	}
	return m.base.ConsolidateModules(modules)
}

// Codelength, IndexCodelength and ModuleCodelength delegate to Base:
// the memory term is already folded into Base's own codelength/
// moduleCodelength fields by Update.
func (m *Memory) Codelength() float64      { return m.base.Codelength() }
func (m *Memory) IndexCodelength() float64 { return m.base.IndexCodelength() }
func (m *Memory) ModuleCodelength() float64 { return m.base.ModuleCodelength() }

// HaveMemory always returns true for Memory.
func (m *Memory) HaveMemory() bool { return true }

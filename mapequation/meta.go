// File: meta.go
// Role: the meta-data-augmented map equation — a decorator over *Base
// that layers a rate-weighted categorical entropy term, tracked in its own
// metaCodelength field, on top of the base algebra.
package mapequation

import (
	"fmt"

	"github.com/mapeqio/mapeq/core"
	"github.com/mapeqio/mapeq/metaset"
)

// Meta implements the meta-data-augmented map equation by embedding a
// *Base and maintaining one per-module metaset.Collection on top of it.
type Meta struct {
	base *Base

	metaDataRate           float64
	weightByFlow           bool
	moduleToMetaCollection map[int]*metaset.Collection
	metaCodelength         float64
}

// NewMeta returns a zero-valued Meta, ready for Init.
func NewMeta() *Meta {
	return &Meta{base: NewBase(), moduleToMetaCollection: make(map[int]*metaset.Collection)}
}

// Init resets the embedded Base and the per-module collection map, and
// validates cfg.MetaDataRate.
func (m *Meta) Init(cfg Config) error {
	if cfg.MetaDataRate < 0 {
		return ErrInvalidMetaDataRate
	}
	m.metaDataRate = cfg.MetaDataRate
	m.weightByFlow = cfg.WeightByFlow
	m.moduleToMetaCollection = make(map[int]*metaset.Collection)
	m.metaCodelength = 0
	return m.base.Init(cfg)
}

// InitNetwork delegates to Base, then seeds every leaf's MetaCollection
// from MetaData[0] (InitMetaNodes in spec parlance). A leaf missing
// meta-data is a configuration error: the meta variant cannot silently
// treat it as belonging to no category.
func (m *Meta) InitNetwork(root *core.Node) error {
	if err := m.base.InitNetwork(root); err != nil {
		return err
	}
	return m.initMetaNodes(root)
}

func (m *Meta) initMetaNodes(root *core.Node) error {
	for _, leaf := range root.Leaves(nil) {
		if len(leaf.MetaData) == 0 {
			return ErrMissingMetaData
		}
		weight := 1.0
		if m.weightByFlow {
			weight = leaf.Data.Flow
		}
		c := metaset.New()
		c.Add(leaf.MetaData[0], weight)
		leaf.MetaCollection = c
	}
	return nil
}

// InitSuperNetwork and InitSubNetwork delegate to Base: meta-data is a
// leaf-layer property re-seeded only when InitNetwork re-runs at a
// coarser level, which InitSuperNetwork's caller does via a fresh
// InitNetwork call rather than InitSuperNetwork itself.
func (m *Meta) InitSuperNetwork(root *core.Node) error { return m.base.InitSuperNetwork(root) }
func (m *Meta) InitSubNetwork(root *core.Node) error   { return m.base.InitSubNetwork(root) }

// InitPartition delegates to Base for the flow-based codelength, then
// builds moduleToMetaCollection (InitPartitionOfMetaNodes) and derives
// metaCodelength from it.
func (m *Meta) InitPartition(active []*core.Node) error {
	if err := m.base.InitPartition(active); err != nil {
		return err
	}
	m.moduleToMetaCollection = make(map[int]*metaset.Collection)
	var sum float64
	for moduleIndex, node := range active {
		if node == nil {
			return core.ErrNilNode
		}
		if node.MetaCollection == nil {
			return ErrMissingMetaData
		}
		c := node.MetaCollection.Clone()
		m.moduleToMetaCollection[moduleIndex] = c
		sum += c.Entropy()
	}
	m.metaCodelength = m.metaDataRate * sum
	return nil
}

// CalcCodelength delegates to Base unchanged: the meta term is reported
// only through Codelength(), never folded into a single
// module's scalar contribution.
func (m *Meta) CalcCodelength(parent *core.Node) float64 {
	return m.base.CalcCodelength(parent)
}

// withTemporaryAdd merges add into dst, evaluates dst's entropy, then
// removes add again, restoring dst to its prior state exactly. Used to
// evaluate a candidate module's post-move entropy without mutating the
// real bookkeeping — the decorator's realization of DeltaCodelength's
// read-only contract for the meta term.
func withTemporaryAdd(dst, add *metaset.Collection) (float64, error) {
	dst.AddCollection(add)
	h := dst.Entropy()
	if err := dst.RemoveCollection(add); err != nil {
		return 0, err
	}
	return h, nil
}

func withTemporaryRemove(dst, sub *metaset.Collection) (float64, error) {
	if err := dst.RemoveCollection(sub); err != nil {
		return 0, err
	}
	h := dst.Entropy()
	dst.AddCollection(sub)
	return h, nil
}

// DeltaCodelength returns the base delta plus metaDataRate times the
// change in the two touched modules' meta entropy, evaluated by
// temporarily adding/removing node's MetaCollection and restoring the
// map's real collections before returning.
func (m *Meta) DeltaCodelength(node *core.Node, oldDelta, newDelta core.DeltaFlow, moduleFlow []core.FlowData, moduleMembers []int) (float64, error) {
	baseDelta, err := m.base.DeltaCodelength(node, oldDelta, newDelta, moduleFlow, moduleMembers)
	if err != nil {
		return 0, err
	}
	if node == nil || node.MetaCollection == nil {
		return 0, ErrMissingMetaData
	}
	a, bIdx := oldDelta.Module, newDelta.Module
	collA, ok := m.moduleToMetaCollection[a]
	if !ok {
		return 0, core.ErrMissingModuleEntry
	}
	collB, ok := m.moduleToMetaCollection[bIdx]
	if !ok {
		return 0, core.ErrMissingModuleEntry
	}

	hBeforeA, hBeforeB := collA.Entropy(), collB.Entropy()
	hAfterA, err := withTemporaryRemove(collA, node.MetaCollection)
	if err != nil {
		return 0, err
	}
	hAfterB, err := withTemporaryAdd(collB, node.MetaCollection)
	if err != nil {
		return 0, err
	}

	metaDelta := m.metaDataRate * ((hAfterA + hAfterB) - (hBeforeA + hBeforeB))
	return baseDelta + metaDelta, nil
}

// Update applies the base update, then moves node's MetaCollection from
// module a's collection to module b's, updating metaCodelength by the net
// change in entropy (not moduleCodelength/codelength: Codelength adds
// the two together at read time).
func (m *Meta) Update(node *core.Node, oldDelta, newDelta core.DeltaFlow, moduleFlow []core.FlowData, moduleMembers []int) error {
	if err := m.base.Update(node, oldDelta, newDelta, moduleFlow, moduleMembers); err != nil {
		return err
	}
	if node == nil || node.MetaCollection == nil {
		return ErrMissingMetaData
	}
	a, bIdx := oldDelta.Module, newDelta.Module
	collA, ok := m.moduleToMetaCollection[a]
	if !ok {
		return core.ErrMissingModuleEntry
	}
	collB, ok := m.moduleToMetaCollection[bIdx]
	if !ok {
		return core.ErrMissingModuleEntry
	}

	hBeforeA, hBeforeB := collA.Entropy(), collB.Entropy()
	if err := collA.RemoveCollection(node.MetaCollection); err != nil {
		return err
	}
	collB.AddCollection(node.MetaCollection)
	hAfterA, hAfterB := collA.Entropy(), collB.Entropy()

	m.metaCodelength += m.metaDataRate * ((hAfterA + hAfterB) - (hBeforeA + hBeforeB))
	return nil
}

// ConsolidateModules writes moduleToMetaCollection[i] onto modules[i]'s
// MetaCollection for every module index that has a collection, then
// delegates to Base. A nil module is an error.
func (m *Meta) ConsolidateModules(modules []*core.Node) error {
	for i, mod := range modules {
		if mod == nil {
			return fmt.Errorf("mapequation: %w", core.ErrNilNode)
		}
		if c, ok := m.moduleToMetaCollection[i]; ok {
			mod.MetaCollection = c
		}
	}
	return m.base.ConsolidateModules(modules)
}

// Codelength returns GetCodelength's definition from spec: the base's
// flow codelength plus the meta entropy term.
func (m *Meta) Codelength() float64 { return m.base.Codelength() + m.metaCodelength }

// IndexCodelength returns the base's index-level term, unaffected by meta.
func (m *Meta) IndexCodelength() float64 { return m.base.IndexCodelength() }

// ModuleCodelength returns the base's module-level term, unaffected by
// meta: the meta term lives only in metaCodelength/Codelength.
func (m *Meta) ModuleCodelength() float64 { return m.base.ModuleCodelength() }

// MetaCodelength returns the current meta-data entropy term on its own,
// for callers that want to report it separately from the flow codelength.
func (m *Meta) MetaCodelength() float64 { return m.metaCodelength }

// HaveMemory always returns false for Meta.
func (m *Meta) HaveMemory() bool { return false }

// File: base.go
// Role: the continuous-flow map equation — six running entropy sums and
// the init/delta/update/consolidate operations that keep them consistent
// with a from-scratch recomputation.
package mapequation

import (
	"fmt"

	"github.com/mapeqio/mapeq/core"
	"github.com/mapeqio/mapeq/mapmath"
)

// Base implements the standard (continuous-flow) map equation. It is also
// the shared algebra Memory and Meta decorate: both embed a *Base and
// delegate to it before layering their own extra term.
type Base struct {
	cfg Config
	st  state

	// The six running entropy sums, maintained incrementally by
	// InitPartition and Update, and checked against a from-scratch
	// recomputation by the test suite.
	nodeFlowLogNodeFlow   float64 // constant for a fixed leaf set
	flowLogFlow           float64 // sum over modules of plogp(flow+exit)
	exitLogExit           float64 // sum over modules of plogp(exit)
	enterLogEnter         float64 // sum over modules of plogp(enter)
	enterFlowSum          float64 // sum over modules of enter, plus exitNetworkFlow
	enterFlowLogEnterFlow float64 // plogp(enterFlowSum)

	exitNetworkFlow                   float64
	exitNetworkFlowLogExitNetworkFlow float64

	indexCodelength  float64
	moduleCodelength float64
	codelength       float64
}

// NewBase returns a zero-valued Base, ready for Init.
func NewBase() *Base {
	return &Base{}
}

// Init resets all sums and records cfg. Base ignores MetaDataRate and
// WeightByFlow; it reads only cfg.Debug.
func (b *Base) Init(cfg Config) error {
	*b = Base{cfg: cfg}
	return nil
}

// InitNetwork computes nodeFlowLogNodeFlow over root's leaf layer and
// delegates to InitSubNetwork for the root-boundary terms.
func (b *Base) InitNetwork(root *core.Node) error {
	if root == nil {
		return core.ErrNilNode
	}
	var sum float64
	for _, leaf := range root.Leaves(nil) {
		sum += mapmath.Plogp(leaf.Data.Flow)
	}
	b.nodeFlowLogNodeFlow = sum
	return b.InitSubNetwork(root)
}

// InitSubNetwork sets exitNetworkFlow and its plogp from root's own
// boundary flow, and (re-)enters NetworkInit.
func (b *Base) InitSubNetwork(root *core.Node) error {
	if root == nil {
		return core.ErrNilNode
	}
	b.exitNetworkFlow = root.Data.ExitFlow
	b.exitNetworkFlowLogExitNetworkFlow = mapmath.Plogp(b.exitNetworkFlow)
	b.st = stateNetworkInit
	return nil
}

// InitSuperNetwork recomputes nodeFlowLogNodeFlow from root's children's
// EnterFlow instead of Flow: at a super-level, a module's enter-flow plays
// the role its visit probability played at the leaf level.
func (b *Base) InitSuperNetwork(root *core.Node) error {
	if root == nil {
		return core.ErrNilNode
	}
	var sum float64
	for _, child := range root.Children() {
		sum += mapmath.Plogp(child.Data.EnterFlow)
	}
	b.nodeFlowLogNodeFlow = sum
	b.st = stateNetworkInit
	return nil
}

// InitPartition computes the initial codelength over active and enters
// the Optimizing state (PartitionInit is transient: nothing meaningful
// can be observed between InitPartition finishing and the driver's first
// DeltaCodelength/Update call, so there is no separate externally visible
// PartitionInit state).
func (b *Base) InitPartition(active []*core.Node) error {
	var flowLogFlow, enterLogEnter, exitLogExit, enterFlowSum float64
	for _, m := range active {
		if m == nil {
			return core.ErrNilNode
		}
		flowLogFlow += mapmath.Plogp(m.Data.Flow + m.Data.ExitFlow)
		enterLogEnter += mapmath.Plogp(m.Data.EnterFlow)
		exitLogExit += mapmath.Plogp(m.Data.ExitFlow)
		enterFlowSum += m.Data.EnterFlow
	}
	enterFlowSum += b.exitNetworkFlow

	b.flowLogFlow = flowLogFlow
	b.enterLogEnter = enterLogEnter
	b.exitLogExit = exitLogExit
	b.enterFlowSum = enterFlowSum
	b.enterFlowLogEnterFlow = mapmath.Plogp(enterFlowSum)

	b.recomputeCodelengths()
	b.st = stateOptimizing
	b.cfg.Debug.emit("initPartition", b.codelength)
	return nil
}

// recomputeCodelengths derives indexCodelength, moduleCodelength and
// codelength from the six running sums. Both InitPartition and Update
// call this at the end, so "recompute from scratch" and "incremental
// update" always agree by construction.
func (b *Base) recomputeCodelengths() {
	b.indexCodelength = b.enterFlowLogEnterFlow - b.enterLogEnter - b.exitNetworkFlowLogExitNetworkFlow
	b.moduleCodelength = -b.exitLogExit + b.flowLogFlow - b.nodeFlowLogNodeFlow
	b.codelength = b.indexCodelength + b.moduleCodelength
}

// CalcCodelength evaluates the codelength contribution of a single module,
// independent of the six running sums.
func (b *Base) CalcCodelength(parent *core.Node) float64 {
	if parent == nil {
		return 0
	}
	if parent.IsLeaf() || parent.Children()[0].IsLeaf() {
		return b.calcCodelengthOnModuleOfLeafNodes(parent)
	}
	return b.calcCodelengthOnModuleOfModules(parent)
}

func (b *Base) calcCodelengthOnModuleOfLeafNodes(parent *core.Node) float64 {
	total := parent.Data.Flow + parent.Data.ExitFlow
	if total < 1e-16 {
		return 0
	}
	var sum float64
	for _, child := range parent.Children() {
		sum -= mapmath.Plogp(child.Data.Flow / total)
	}
	sum -= mapmath.Plogp(parent.Data.ExitFlow / total)
	return total * sum
}

func (b *Base) calcCodelengthOnModuleOfModules(parent *core.Node) float64 {
	q := parent.Data.ExitFlow
	var sumP, sumPlogp float64
	for _, child := range parent.Children() {
		p := child.Data.EnterFlow
		sumP += p
		sumPlogp += mapmath.Plogp(p)
	}
	total := q + sumP
	return mapmath.Plogp(total) - sumPlogp - mapmath.Plogp(q)
}

// movedFlow computes the post-move FlowData for the source module a
// (node removed) and destination module b (node inserted), given the
// driver-built delta records. It does not read or write b's receiver
// state — only core.FlowData values passed in.
func movedFlow(oldA, oldB, nodeData core.FlowData, oldDelta, newDelta core.DeltaFlow) (newA, newB core.FlowData) {
	newA = core.FlowData{
		Flow:      oldA.Flow - nodeData.Flow,
		EnterFlow: oldA.EnterFlow - nodeData.EnterFlow + oldDelta.DeltaEnter,
		ExitFlow:  oldA.ExitFlow - nodeData.ExitFlow + oldDelta.DeltaExit,
	}
	newB = core.FlowData{
		Flow:      oldB.Flow + nodeData.Flow,
		EnterFlow: oldB.EnterFlow + nodeData.EnterFlow - newDelta.DeltaEnter,
		ExitFlow:  oldB.ExitFlow + nodeData.ExitFlow - newDelta.DeltaExit,
	}
	return newA, newB
}

// deltaTerms bundles the four incremental changes DeltaCodelength and
// Update both derive from the same pair of (old, new) module FlowData
// values, keeping the two paths numerically aligned by construction.
type deltaTerms struct {
	deltaFlowLogFlow           float64
	deltaEnterLogEnter         float64
	deltaExitLogExit           float64
	newEnterFlowSum            float64
	deltaEnterFlowLogEnterFlow float64
	deltaCodelength            float64
}

func (b *Base) computeDeltaTerms(oldA, newA, oldB, newB core.FlowData) deltaTerms {
	var t deltaTerms
	t.deltaFlowLogFlow = mapmath.Plogp(newA.Flow+newA.ExitFlow) - mapmath.Plogp(oldA.Flow+oldA.ExitFlow) +
		mapmath.Plogp(newB.Flow+newB.ExitFlow) - mapmath.Plogp(oldB.Flow+oldB.ExitFlow)
	t.deltaEnterLogEnter = mapmath.Plogp(newA.EnterFlow) - mapmath.Plogp(oldA.EnterFlow) +
		mapmath.Plogp(newB.EnterFlow) - mapmath.Plogp(oldB.EnterFlow)
	t.deltaExitLogExit = mapmath.Plogp(newA.ExitFlow) - mapmath.Plogp(oldA.ExitFlow) +
		mapmath.Plogp(newB.ExitFlow) - mapmath.Plogp(oldB.ExitFlow)

	deltaEnterFlowSum := (newA.EnterFlow - oldA.EnterFlow) + (newB.EnterFlow - oldB.EnterFlow)
	t.newEnterFlowSum = b.enterFlowSum + deltaEnterFlowSum
	t.deltaEnterFlowLogEnterFlow = mapmath.Plogp(t.newEnterFlowSum) - mapmath.Plogp(b.enterFlowSum)

	t.deltaCodelength = t.deltaEnterFlowLogEnterFlow - t.deltaEnterLogEnter - t.deltaExitLogExit + t.deltaFlowLogFlow
	return t
}

// DeltaCodelength computes the change in total codelength if node moved
// from module oldDelta.Module to module newDelta.Module. It reads but
// never mutates b's sums or moduleFlow.
func (b *Base) DeltaCodelength(node *core.Node, oldDelta, newDelta core.DeltaFlow, moduleFlow []core.FlowData, moduleMembers []int) (float64, error) {
	if b.st != stateOptimizing {
		return 0, ErrNotOptimizing
	}
	if node == nil {
		return 0, core.ErrNilNode
	}
	a, bIdx := oldDelta.Module, newDelta.Module
	newA, newB := movedFlow(moduleFlow[a], moduleFlow[bIdx], node.Data, oldDelta, newDelta)
	t := b.computeDeltaTerms(moduleFlow[a], newA, moduleFlow[bIdx], newB)
	return t.deltaCodelength, nil
}

// Update applies the move DeltaCodelength would have evaluated: it mutates
// moduleFlow[a]/moduleFlow[b] in place, advances the four running sums by
// the same deltaTerms DeltaCodelength would compute, and re-derives the
// three codelengths from the final sums.
func (b *Base) Update(node *core.Node, oldDelta, newDelta core.DeltaFlow, moduleFlow []core.FlowData, moduleMembers []int) error {
	if b.st != stateOptimizing {
		return ErrNotOptimizing
	}
	if node == nil {
		return core.ErrNilNode
	}
	a, bIdx := oldDelta.Module, newDelta.Module
	oldA, oldB := moduleFlow[a], moduleFlow[bIdx]
	newA, newB := movedFlow(oldA, oldB, node.Data, oldDelta, newDelta)
	t := b.computeDeltaTerms(oldA, newA, oldB, newB)

	moduleFlow[a] = newA
	moduleFlow[bIdx] = newB

	b.flowLogFlow += t.deltaFlowLogFlow
	b.enterLogEnter += t.deltaEnterLogEnter
	b.exitLogExit += t.deltaExitLogExit
	b.enterFlowSum = t.newEnterFlowSum
	b.enterFlowLogEnterFlow = mapmath.Plogp(b.enterFlowSum)

	b.recomputeCodelengths()
	b.cfg.Debug.emit("update", b.codelength)
	return nil
}

// ConsolidateModules is a no-op for Base: it owns no auxiliary state
// beyond the six sums, which already live on the Objective itself. Memory
// and Meta override this to write back their own per-module bookkeeping.
func (b *Base) ConsolidateModules(modules []*core.Node) error {
	for _, m := range modules {
		if m == nil {
			return fmt.Errorf("mapequation: %w", core.ErrNilNode)
		}
	}
	b.st = stateConsolidated
	return nil
}

// Codelength returns the current total codelength.
func (b *Base) Codelength() float64 { return b.codelength }

// IndexCodelength returns the current index-level codelength term.
func (b *Base) IndexCodelength() float64 { return b.indexCodelength }

// ModuleCodelength returns the current module-level codelength term.
func (b *Base) ModuleCodelength() float64 { return b.moduleCodelength }

// HaveMemory always returns false for Base.
func (b *Base) HaveMemory() bool { return false }

// File: integer.go
// Role: the integer (Grassberger) map equation — the same six-sum algebra
// as Base, but over degree counts normalized by the network's total degree
// instead of continuous flow probabilities.
package mapequation

import (
	"fmt"

	"github.com/mapeqio/mapeq/core"
	"github.com/mapeqio/mapeq/mapmath"
)

// Integer implements the Grassberger-estimator map equation: every plogp
// term is replaced by mapmath.PlogpN(count, totalDegree), and enter/exit
// collapse into IntegerFlow's single EnterExitFlow field. The six running
// sums mirror Base's in shape, so the derivation in recomputeCodelengths
// below is deliberately structured to read side by side with Base's.
type Integer struct {
	cfg Config
	st  state

	totalDegree int64

	nodeFlowLogNodeFlow   float64
	flowLogFlow           float64
	exitLogExit           float64
	enterLogEnter         float64
	enterFlowSum          int64
	enterFlowLogEnterFlow float64

	exitNetworkFlow                   int64
	exitNetworkFlowLogExitNetworkFlow float64

	indexCodelength  float64
	moduleCodelength float64
	codelength       float64
}

// NewInteger returns a zero-valued Integer, ready for Init.
func NewInteger() *Integer {
	return &Integer{}
}

// plogpN wraps mapmath.PlogpN for a signed count, treating any count <= 0
// as zero contribution (mirrors mapmath.Plogp's own x<=0 convention).
func (o *Integer) plogpN(count int64) float64 {
	if count <= 0 || o.totalDegree <= 0 {
		return 0
	}
	return mapmath.PlogpN(uint64(count), uint64(o.totalDegree))
}

// Init resets all sums and records cfg. Integer ignores MetaDataRate and
// WeightByFlow; it reads only cfg.Debug.
func (o *Integer) Init(cfg Config) error {
	*o = Integer{cfg: cfg}
	return nil
}

// InitNetwork caches totalDegree as the sum of every leaf's Flow (a degree
// count in this variant) and computes nodeFlowLogNodeFlow over the leaf
// layer before delegating to InitSubNetwork.
func (o *Integer) InitNetwork(root *core.Node) error {
	if root == nil {
		return core.ErrNilNode
	}
	leaves := root.Leaves(nil)
	var total int64
	for _, leaf := range leaves {
		total += leaf.IntegerData.Flow
	}
	o.totalDegree = total

	var sum float64
	for _, leaf := range leaves {
		sum += o.plogpN(leaf.IntegerData.Flow)
	}
	o.nodeFlowLogNodeFlow = sum
	return o.InitSubNetwork(root)
}

// InitSubNetwork sets exitNetworkFlow and its plogpN from root's own
// boundary degree, and (re-)enters NetworkInit.
func (o *Integer) InitSubNetwork(root *core.Node) error {
	if root == nil {
		return core.ErrNilNode
	}
	o.exitNetworkFlow = root.IntegerData.EnterExitFlow
	o.exitNetworkFlowLogExitNetworkFlow = o.plogpN(o.exitNetworkFlow)
	o.st = stateNetworkInit
	return nil
}

// InitSuperNetwork recomputes nodeFlowLogNodeFlow from root's children's
// EnterExitFlow instead of Flow, exactly as Base does for EnterFlow.
func (o *Integer) InitSuperNetwork(root *core.Node) error {
	if root == nil {
		return core.ErrNilNode
	}
	var sum float64
	for _, child := range root.Children() {
		sum += o.plogpN(child.IntegerData.EnterExitFlow)
	}
	o.nodeFlowLogNodeFlow = sum
	o.st = stateNetworkInit
	return nil
}

// InitPartition computes the initial codelength over active and enters
// the Optimizing state, for the same reason Base's InitPartition does.
func (o *Integer) InitPartition(active []*core.Node) error {
	var flowLogFlow, enterLogEnter, exitLogExit float64
	var enterFlowSum int64
	for _, m := range active {
		if m == nil {
			return core.ErrNilNode
		}
		flowLogFlow += o.plogpN(m.IntegerData.Flow + m.IntegerData.EnterExitFlow)
		enterLogEnter += o.plogpN(m.IntegerData.EnterExitFlow)
		exitLogExit += o.plogpN(m.IntegerData.EnterExitFlow)
		enterFlowSum += m.IntegerData.EnterExitFlow
	}
	enterFlowSum += o.exitNetworkFlow

	o.flowLogFlow = flowLogFlow
	o.enterLogEnter = enterLogEnter
	o.exitLogExit = exitLogExit
	o.enterFlowSum = enterFlowSum
	o.enterFlowLogEnterFlow = o.plogpN(enterFlowSum)

	o.recomputeCodelengths()
	o.st = stateOptimizing
	o.cfg.Debug.emit("initPartition", o.codelength)
	return nil
}

// recomputeCodelengths derives indexCodelength, moduleCodelength and
// codelength from the six running sums, in the same shape as Base's.
func (o *Integer) recomputeCodelengths() {
	o.indexCodelength = o.enterFlowLogEnterFlow - o.enterLogEnter - o.exitNetworkFlowLogExitNetworkFlow
	o.moduleCodelength = -o.exitLogExit + o.flowLogFlow - o.nodeFlowLogNodeFlow
	o.codelength = o.indexCodelength + o.moduleCodelength
}

// CalcCodelength evaluates the codelength contribution of a single module,
// independent of the six running sums.
func (o *Integer) CalcCodelength(parent *core.Node) float64 {
	if parent == nil {
		return 0
	}
	if parent.IsLeaf() || parent.Children()[0].IsLeaf() {
		return o.calcCodelengthOnModuleOfLeafNodes(parent)
	}
	return o.calcCodelengthOnModuleOfModules(parent)
}

func (o *Integer) calcCodelengthOnModuleOfLeafNodes(parent *core.Node) float64 {
	total := parent.IntegerData.Flow + parent.IntegerData.EnterExitFlow
	if total <= 0 || o.totalDegree <= 0 {
		return 0
	}
	n := float64(o.totalDegree)
	ftotal := float64(total) / n
	var sum float64
	for _, child := range parent.Children() {
		sum -= mapmath.Plogp(float64(child.IntegerData.Flow) / n / ftotal)
	}
	sum -= mapmath.Plogp(float64(parent.IntegerData.EnterExitFlow) / n / ftotal)
	return ftotal * sum
}

func (o *Integer) calcCodelengthOnModuleOfModules(parent *core.Node) float64 {
	q := parent.IntegerData.EnterExitFlow
	var sumP int64
	var sumPlogp float64
	for _, child := range parent.Children() {
		p := child.IntegerData.EnterExitFlow
		sumP += p
		sumPlogp += o.plogpN(p)
	}
	total := q + sumP
	return o.plogpN(total) - sumPlogp - o.plogpN(q)
}

// movedIntegerFlow computes the post-move IntegerFlow for the source module a
// (node removed) and destination module b (node inserted). The Open
// Question over whether a deltaEnterExit is applied once or twice is
// resolved here by construction: DeltaEnterExit from oldDelta/newDelta is
// added exactly once each, mirroring Base's movedFlow.
func movedIntegerFlow(oldA, oldB, nodeData core.IntegerFlow, oldDelta, newDelta core.IntegerDeltaFlow) (newA, newB core.IntegerFlow) {
	newA = core.IntegerFlow{
		Flow:          oldA.Flow - nodeData.Flow,
		EnterExitFlow: oldA.EnterExitFlow - nodeData.EnterExitFlow + oldDelta.DeltaEnterExit,
	}
	newB = core.IntegerFlow{
		Flow:          oldB.Flow + nodeData.Flow,
		EnterExitFlow: oldB.EnterExitFlow + nodeData.EnterExitFlow - newDelta.DeltaEnterExit,
	}
	return newA, newB
}

// integerDeltaTerms mirrors Base's deltaTerms, over the integer algebra.
type integerDeltaTerms struct {
	deltaFlowLogFlow           float64
	deltaEnterLogEnter         float64
	deltaExitLogExit           float64
	newEnterFlowSum            int64
	deltaEnterFlowLogEnterFlow float64
	deltaCodelength            float64
}

func (o *Integer) computeDeltaTerms(oldA, newA, oldB, newB core.IntegerFlow) integerDeltaTerms {
	var t integerDeltaTerms
	t.deltaFlowLogFlow = o.plogpN(newA.Flow+newA.EnterExitFlow) - o.plogpN(oldA.Flow+oldA.EnterExitFlow) +
		o.plogpN(newB.Flow+newB.EnterExitFlow) - o.plogpN(oldB.Flow+oldB.EnterExitFlow)
	t.deltaEnterLogEnter = o.plogpN(newA.EnterExitFlow) - o.plogpN(oldA.EnterExitFlow) +
		o.plogpN(newB.EnterExitFlow) - o.plogpN(oldB.EnterExitFlow)
	t.deltaExitLogExit = t.deltaEnterLogEnter

	deltaEnterFlowSum := (newA.EnterExitFlow - oldA.EnterExitFlow) + (newB.EnterExitFlow - oldB.EnterExitFlow)
	t.newEnterFlowSum = o.enterFlowSum + deltaEnterFlowSum
	t.deltaEnterFlowLogEnterFlow = o.plogpN(t.newEnterFlowSum) - o.plogpN(o.enterFlowSum)

	t.deltaCodelength = t.deltaEnterFlowLogEnterFlow - t.deltaEnterLogEnter - t.deltaExitLogExit + t.deltaFlowLogFlow
	return t
}

// DeltaCodelength computes the change in total codelength if node moved
// from module oldDelta.Module to module newDelta.Module. It reads but
// never mutates o's sums or moduleFlow.
func (o *Integer) DeltaCodelength(node *core.Node, oldDelta, newDelta core.DeltaFlow, moduleFlow []core.FlowData, moduleMembers []int) (float64, error) {
	return 0, fmt.Errorf("mapequation: Integer requires DeltaCodelengthInteger, not the float64 DeltaFlow form")
}

// DeltaCodelengthInteger is Integer's variant-specific counterpart to the
// shared Objective.DeltaCodelength: it takes core.IntegerDeltaFlow records
// and a []core.IntegerFlow module table, since Integer's moduleFlow has a
// different element type than the other three variants'.
func (o *Integer) DeltaCodelengthInteger(node *core.Node, oldDelta, newDelta core.IntegerDeltaFlow, moduleFlow []core.IntegerFlow) (float64, error) {
	if o.st != stateOptimizing {
		return 0, ErrNotOptimizing
	}
	if node == nil {
		return 0, core.ErrNilNode
	}
	a, bIdx := oldDelta.Module, newDelta.Module
	newA, newB := movedIntegerFlow(moduleFlow[a], moduleFlow[bIdx], node.IntegerData, oldDelta, newDelta)
	t := o.computeDeltaTerms(moduleFlow[a], newA, moduleFlow[bIdx], newB)
	return t.deltaCodelength, nil
}

// Update satisfies Objective by rejecting the float64 DeltaFlow form; use
// UpdateInteger for this variant.
func (o *Integer) Update(node *core.Node, oldDelta, newDelta core.DeltaFlow, moduleFlow []core.FlowData, moduleMembers []int) error {
	return fmt.Errorf("mapequation: Integer requires UpdateInteger, not the float64 DeltaFlow form")
}

// UpdateInteger applies the move DeltaCodelengthInteger would have
// evaluated: it mutates moduleFlow[a]/moduleFlow[b] in place, advances the
// running sums by the same integerDeltaTerms DeltaCodelengthInteger would
// compute, and re-derives the three codelengths from the final sums.
func (o *Integer) UpdateInteger(node *core.Node, oldDelta, newDelta core.IntegerDeltaFlow, moduleFlow []core.IntegerFlow) error {
	if o.st != stateOptimizing {
		return ErrNotOptimizing
	}
	if node == nil {
		return core.ErrNilNode
	}
	a, bIdx := oldDelta.Module, newDelta.Module
	oldA, oldB := moduleFlow[a], moduleFlow[bIdx]
	newA, newB := movedIntegerFlow(oldA, oldB, node.IntegerData, oldDelta, newDelta)
	t := o.computeDeltaTerms(oldA, newA, oldB, newB)

	moduleFlow[a] = newA
	moduleFlow[bIdx] = newB

	o.flowLogFlow += t.deltaFlowLogFlow
	o.enterLogEnter += t.deltaEnterLogEnter
	o.exitLogExit += t.deltaExitLogExit
	o.enterFlowSum = t.newEnterFlowSum
	o.enterFlowLogEnterFlow = o.plogpN(o.enterFlowSum)

	o.recomputeCodelengths()
	o.cfg.Debug.emit("update", o.codelength)
	return nil
}

// ConsolidateModules is a no-op for Integer beyond the nil check and state
// transition: it owns no auxiliary state beyond the six sums.
func (o *Integer) ConsolidateModules(modules []*core.Node) error {
	for _, m := range modules {
		if m == nil {
			return fmt.Errorf("mapequation: %w", core.ErrNilNode)
		}
	}
	o.st = stateConsolidated
	return nil
}

// Codelength returns the current total codelength.
func (o *Integer) Codelength() float64 { return o.codelength }

// IndexCodelength returns the current index-level codelength term.
func (o *Integer) IndexCodelength() float64 { return o.indexCodelength }

// ModuleCodelength returns the current module-level codelength term.
func (o *Integer) ModuleCodelength() float64 { return o.moduleCodelength }

// HaveMemory always returns false for Integer.
func (o *Integer) HaveMemory() bool { return false }

package mapequation

import (
	"errors"

	"github.com/mapeqio/mapeq/core"
)

// Sentinel errors returned by mapequation's variants.
var (
	// ErrMissingMetaData indicates the meta variant was selected but a
	// leaf carries no meta-data — a configuration error, not a recoverable
	// condition.
	ErrMissingMetaData = errors.New("mapequation: meta variant requires meta-data on every leaf")

	// ErrInvalidMetaDataRate indicates Config.MetaDataRate is negative.
	ErrInvalidMetaDataRate = errors.New("mapequation: meta-data rate must be non-negative")

	// ErrNotOptimizing indicates DeltaCodelength or Update was called
	// outside the Optimizing state — a programmer error on the driver's
	// part, not a data problem.
	ErrNotOptimizing = errors.New("mapequation: objective used outside Optimizing state")
)

// Module index bounds are never checked explicitly: moduleFlow[a] /
// moduleFlow[b] indexing uses Go's built-in slice bounds checks, which
// panic on an out-of-range index. That is this engine's realization of
// spec's "undefined behavior in release; debug-assert" for an out-of-range
// module index — Go offers no way to turn off memory safety, so the
// panic *is* the debug assertion, always on.

// state tracks the lifecycle described in spec: Uninitialized ->
// NetworkInit -> PartitionInit -> Optimizing -> Consolidated, with
// InitSubNetwork/InitSuperNetwork re-entering NetworkInit.
type state int

const (
	stateUninitialized state = iota
	stateNetworkInit
	statePartitionInit
	stateOptimizing
	stateConsolidated
)

// Config wires the parameters that affect engine behavior. Every field
// besides those actually exercised by a given variant is ignored by it
// (e.g. Base ignores MetaDataRate and WeightByFlow entirely).
type Config struct {
	// NumMetaDataDimensions is the count of meta-data dimensions a leaf
	// may carry. Only dimension 0 is consumed today; additional
	// dimensions are reserved for future use.
	NumMetaDataDimensions int

	// MetaDataRate is the non-negative multiplier on the meta variant's
	// categorical entropy term.
	MetaDataRate float64

	// WeightByFlow selects, when the meta variant seeds a leaf's
	// meta-data collection, between weighting by the leaf's flow (true)
	// or unit weight (false).
	WeightByFlow bool

	// Debug, if non-nil, receives internal trace events at the end of
	// InitPartition and Update. The zero value is a no-op: this engine
	// does not depend on any logging library, matching its teacher.
	Debug DebugSink
}

// DebugSink receives an internal trace event name and the codelength at
// the time it fired. nil is a valid, no-op sink.
type DebugSink func(event string, codelength float64)

func (d DebugSink) emit(event string, codelength float64) {
	if d != nil {
		d(event, codelength)
	}
}

// Objective is the shared contract every map-equation variant satisfies.
// The driver is responsible for presenting the tree (via root *core.Node)
// and the flat, per-move module table (moduleFlow, moduleMembers); the
// Objective is responsible only for the entropy bookkeeping.
type Objective interface {
	// Init records Config and resets all internal sums to zero.
	Init(cfg Config) error

	// InitNetwork pre-computes the constants that depend on the full leaf
	// layer (nodeFlow_log_nodeFlow and friends) and enters NetworkInit.
	InitNetwork(root *core.Node) error

	// InitSuperNetwork recomputes the leaf-layer constants treating root's
	// children as the new "leaves" (ascending one level), re-entering
	// NetworkInit.
	InitSuperNetwork(root *core.Node) error

	// InitSubNetwork sets the root-boundary terms (exitNetworkFlow and its
	// plogp) and re-enters NetworkInit.
	InitSubNetwork(root *core.Node) error

	// InitPartition computes the initial codelength over active (the flat
	// list of currently-active modules) and enters PartitionInit, then
	// Optimizing.
	InitPartition(active []*core.Node) error

	// CalcCodelength evaluates the codelength contribution of a single
	// module (leaf or module-of-modules), independent of the six running
	// sums. Safe to call in any state once InitNetwork has run.
	CalcCodelength(parent *core.Node) float64

	// DeltaCodelength computes, without mutating any state, the change in
	// total codelength if node moved from module oldDelta.Module into
	// module newDelta.Module. Requires Optimizing state.
	DeltaCodelength(node *core.Node, oldDelta, newDelta core.DeltaFlow, moduleFlow []core.FlowData, moduleMembers []int) (float64, error)

	// Update applies the move DeltaCodelength would have evaluated,
	// mutating both the Objective's internal sums and the driver-owned
	// moduleFlow slice in place. Requires Optimizing state.
	Update(node *core.Node, oldDelta, newDelta core.DeltaFlow, moduleFlow []core.FlowData, moduleMembers []int) error

	// ConsolidateModules writes back any variant-owned auxiliary state
	// (memory's physical-node overlaps, meta's per-module collections)
	// onto the given module tree nodes, and enters Consolidated.
	ConsolidateModules(modules []*core.Node) error

	// Codelength returns the current total codelength.
	Codelength() float64

	// IndexCodelength returns the current index-level codelength term.
	IndexCodelength() float64

	// ModuleCodelength returns the current module-level codelength term.
	ModuleCodelength() float64

	// HaveMemory reports whether this variant tracks per-physical-node
	// overlap (true only for Memory).
	HaveMemory() bool
}

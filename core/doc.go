// Package core defines the shared data model the map-equation engine
// operates on: additive flow records (FlowData, PairFlow, IntegerFlow),
// the per-move DeltaFlow record a driver builds for a candidate move, and
// Node, the hierarchical tree of vertices the engine walks to compute and
// maintain codelength.
//
// Tree ownership is exclusive: a Node owns its children; children carry a
// non-owning back-reference to their parent. Nothing in this package
// mutates a Node's flow fields on its own — callers (mapequation's
// variants) read and write them directly, since the six entropy sums are
// the engine's responsibility, not the tree's.
//
// Errors:
//
//	ErrNilNode         - a nil *Node was passed where one was required.
//	ErrEmptyPhysIndex   - physical-node reindexing found no physical ids.
//	ErrDuplicatePhysIndex - the same (module, physIndex) pair appeared twice during consolidation.
//	ErrMissingModuleEntry - a lookup for a module's memory/meta bookkeeping entry came up empty.
package core

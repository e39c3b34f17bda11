package core

import "errors"

// Sentinel errors for the core data model.
var (
	// ErrNilNode indicates a nil *Node was passed where one was required.
	ErrNilNode = errors.New("core: node is nil")

	// ErrEmptyPhysIndex indicates physical-node reindexing was asked to run
	// over a leaf layer that carries no physical ids at all.
	ErrEmptyPhysIndex = errors.New("core: no physical nodes to reindex")

	// ErrDuplicatePhysIndex indicates the same (module, physIndex) pair
	// appeared twice while consolidating memory-variant state onto the
	// tree — an internal-state corruption, never a recoverable condition.
	ErrDuplicatePhysIndex = errors.New("core: duplicate (module, physIndex) pair during consolidation")

	// ErrMissingModuleEntry indicates a lookup for a module's bookkeeping
	// entry (memory's physToModule map, meta's moduleToMeta map) found
	// nothing — the engine and its caller are out of sync.
	ErrMissingModuleEntry = errors.New("core: missing module bookkeeping entry")
)

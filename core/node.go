// File: node.go
// Role: the hierarchical tree the engine walks — parent/children ownership,
// flow storage, and the optional physical-node / meta-data side tables.
// AI-HINT (file):
//   - A Node owns its children; children hold a non-owning Parent pointer.
//   - Index is re-assigned by Reindex whenever a parent's child list changes
//     shape (a move lands a node in a new module's child list).
package core

import "github.com/mapeqio/mapeq/metaset"

// Node is a vertex in the hierarchical tree the engine operates on. A leaf
// Node is a state node (or, for first-order networks, a plain node); a
// non-leaf Node is a module containing child modules or leaves.
type Node struct {
	// Index is this node's position inside its parent's child list.
	// Reassigned by the parent's Reindex whenever the child list's shape
	// changes (append, remove, or a driver-managed move).
	Index int

	// Data is this node's flow aggregate (continuous base/memory/meta
	// variants). The integer variant uses IntegerData instead.
	Data FlowData

	// IntegerData is the flow aggregate used by the integer (Grassberger)
	// variant; zero-valued and unused by the other three variants.
	IntegerData IntegerFlow

	// PhysicalID identifies the underlying physical node this (state) node
	// belongs to, before InitPhysicalNodes densely reindexes it. Zero for
	// first-order networks.
	PhysicalID int

	// PhysicalNodes is this node's ordered list of physical-node
	// contributions. Empty for first-order networks until
	// Memory.InitPhysicalNodes seeds one self-contribution per leaf;
	// populated on modules by Memory.ConsolidateModules.
	PhysicalNodes []PhysData

	// MetaData holds this node's categorical tags. Only MetaData[0] is
	// consumed today; additional dimensions are reserved (see Config).
	MetaData []string

	// MetaCollection is this node's (or module's) meta-data bag. nil until
	// Meta.InitMetaNodes (for leaves) or Meta.InitPartitionOfMetaNodes
	// (for modules) seeds it.
	MetaCollection *metaset.Collection

	parent   *Node
	children []*Node
}

// NewNode constructs a leaf Node carrying the given flow data. It is an
// ordinary constructor, not a disguised type-cast: variant-specific flow
// shapes get their own constructors (NewIntegerNode) since Go has no
// down-casting to recover a concrete type from a generic one.
func NewNode(data FlowData) *Node {
	return &Node{Data: data}
}

// NewIntegerNode constructs a leaf Node carrying integer flow data, for use
// with the Integer (Grassberger) objective variant.
func NewIntegerNode(data IntegerFlow) *Node {
	return &Node{IntegerData: data}
}

// Parent returns n's parent, or nil if n is the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns n's child list. The returned slice is owned by n;
// callers must not retain it across a mutating call (AddChild, Reindex).
func (n *Node) Children() []*Node {
	return n.children
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.children) == 0
}

// AddChild appends child to n's child list, sets child's parent back-
// reference to n, and assigns child.Index to its new position. Returns
// ErrNilNode if child is nil.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	child.parent = n
	child.Index = len(n.children)
	n.children = append(n.children, child)
	return nil
}

// Reindex re-assigns Index across n's entire child list, in current
// order. Call after any operation that removes or reorders children
// without going through AddChild.
func (n *Node) Reindex() {
	for i, c := range n.children {
		c.Index = i
	}
}

// Leaves appends every leaf reachable from n (n itself if n.IsLeaf()) to
// out, in child order, and returns the extended slice. This is the flat
// leaf layer InitNetwork's nodeFlow_log_nodeFlow sum iterates over.
func (n *Node) Leaves(out []*Node) []*Node {
	if n.IsLeaf() {
		return append(out, n)
	}
	for _, c := range n.children {
		out = c.Leaves(out)
	}
	return out
}

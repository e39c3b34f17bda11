// Package metaset provides Collection, a categorical bag (tag -> cumulative
// weight) used by the meta-data-augmented map-equation variant to track
// how a module's leaves are distributed across meta-data categories.
//
// Collection supports addition, subtraction, and Shannon-entropy
// evaluation. Remove is the inverse of Add/AddCollection for the same
// argument: calling AddCollection(x) then RemoveCollection(x) restores a
// Collection to its prior tags and weights, up to floating-point rounding
// of each weight, which mapequation's meta
// variant relies on to implement a read-only DeltaCodelength query (add the
// moving node's collection, measure entropy, remove it again).
package metaset

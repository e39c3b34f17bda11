// Package mapeq is a map-equation objective engine: the flow/delta-flow
// algebra, module-aggregate bookkeeping, and move/update protocol behind
// Infomap-style community detection, factored into four objective
// variants under mapequation/.
//
// Under the hood, everything is organized under four subpackages:
//
//	mapmath/     — the plogp/plogpN entropy kernel shared by every variant
//	metaset/     — the categorical tag -> weight bag the meta variant maintains
//	core/        — the hierarchical node tree and its flow-aggregate types
//	mapequation/ — the four objective variants: Base, Integer, Memory, Meta
//
// A driver builds a core.Node tree, hands it to one of mapequation's
// objective constructors, and then repeatedly queries DeltaCodelength and
// applies Update as it searches for a lower-codelength partition. See
// mapequation's package doc for a worked driver session.
package mapeq

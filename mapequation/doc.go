// Package mapequation implements the map-equation objective engine: four
// variants (Base, Integer, Memory, Meta) that each maintain a hierarchical
// partition's description length (codelength) incrementally as a driver
// proposes and applies node moves.
//
// All four variants implement Objective. Base realizes the continuous-flow
// map equation directly; Integer re-derives the same algebra over
// normalized integer degrees (the Grassberger estimator); Memory and Meta
// are decorators that embed a *Base and layer one extra term on top
// (per-physical-node overlap accounting, and a categorical meta-data
// entropy term, respectively) rather than reimplementing the shared
// algebra or relying on embedding-based virtual dispatch.
//
// A typical driver session:
//
//	obj := mapequation.NewBase()
//	_ = obj.Init(mapequation.Config{})
//	_ = obj.InitNetwork(root)
//	_ = obj.InitPartition(activeModules)
//	for each candidate move {
//	    delta, _ := obj.DeltaCodelength(node, oldDelta, newDelta, moduleFlow, moduleMembers)
//	    if delta < 0 {
//	        _ = obj.Update(node, oldDelta, newDelta, moduleFlow, moduleMembers)
//	    }
//	}
//
// DeltaCodelength never mutates an Objective's internal state; only Update
// does. This is a hard contract (see the package-level tests) since a
// driver may call DeltaCodelength many times for the same node before
// choosing a destination module, or none at all.
package mapequation

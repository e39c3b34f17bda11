// Package mapmath provides the scalar building blocks shared by every
// map-equation objective variant: the plogp entropy kernel, its pair and
// integer-normalized forms, and a comparison helper used to decide when
// two values agree within tolerance.
//
// Every function here is pure and allocation-free. None of them touch a
// Node, a module table, or any other engine state — that separation is
// deliberate: mapequation builds its six entropy sums by calling these
// functions in a tight loop, and keeping them free of side effects makes
// the sums easy to reason about and to re-derive from scratch for testing.
//
// log2 is computed as natural log times 1/ln(2) rather than a libm log2,
// for portability across platforms (mirrors the original C++ "M_LOG2E"
// trick).
package mapmath

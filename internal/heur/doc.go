// Package heur is the shared heuristic library: the ancestor walks, guard
// detection, helper-call expansion and name-table matching that nearly every
// rule needs. Everything here is a pure predicate or transform over an
// immutable tree plus optional text.
//
// Several of these checks are knowingly approximate, standing in for
// semantic analysis the engine does not have (and the front end only
// promises best effort for). They live here as named, unit-tested functions
// so their false-positive/false-negative edges are documented in one place
// instead of hidden inside rule bodies.
package heur

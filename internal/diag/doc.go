// Package diag defines the diagnostic model shared by the dispatch engine,
// the fix engine and the output formatters.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture
//     findings produced by analysis rules.
//   - Offer light-weight utilities (Reporter, Bag) that let rules emit
//     findings without coupling to concrete storage or formatting layers.
//   - Model fix suggestions as structured edits that the fix engine or CLI
//     can validate and optionally apply.
//
// # Scope
//
// Package diag performs no formatting, IO, or CLI integration. Rendering
// lives in internal/diagfmt, fix application in internal/fix, and
// orchestration in internal/driver.
//
// # Data model
//
// Diagnostic is the central record. A regular finding carries the id of the
// rule that produced it; internal conditions (a rule callback panicking, a
// span reaching past the buffer, a malformed fix) carry a non-zero Code so
// operators can spot engine trouble without losing the healthy rules'
// output.
//
// Notes should be used sparingly: each note must add new context ("field
// declared here") rather than restating the message.
//
// # Emitting diagnostics
//
// Rules receive a Reporter-backed emit callback from the engine. The
// ReportBuilder offers a fluent way to attach notes, a correction hint and
// fix suggestions before emitting exactly once. BagReporter aggregates into
// a Bag; DedupReporter suppresses exact duplicates at the source.
package diag

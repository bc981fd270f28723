// Package organize owns the classification-and-naming engine.
//
// Files map to (year, month) group keys from their local last-modified date.
// Each group holds a state record seeded once from the destination directory;
// allocation then proceeds through serialized in-memory counters, so names
// never collide and sequence numbers are never reused, within a run or
// across re-runs. The relocator performs the moves and routes failures to
// the sink instead of aborting the batch.
//
// Allocation for one group is mutually exclusive; distinct groups organize
// in parallel with no shared state.
package organize

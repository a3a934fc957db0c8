// Package poller implements the quote poller.
//
// The poller:
//   - Runs one cycle immediately on Start, then one per interval
//   - Fans a cycle out to one fetch per symbol with bounded concurrency
//   - Joins on every fetch before handing the cycle to its sinks
//   - Treats any per-symbol failure as "no result this cycle"
//
// Cycles never overlap: the next tick is only read after the current cycle
// has been applied, and ticks missed meanwhile are dropped.
package poller

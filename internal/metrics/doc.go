// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Poll cycle count, duration and per-symbol fetch outcomes
//   - Rows held per watchlist group
//   - History writer flushes, drops and errors
//   - Stream clients and pushed snapshots
package metrics

// Package writer persists quote history.
//
// The QuoteWriter is a poller sink: every completed cycle is enqueued
// without blocking, its successful quotes are batched and flushed to a
// Store on size or interval. Writes are append-only; a (symbol, cycle)
// pair is stored at most once.
package writer

// Package server exposes the watcher over HTTP: group and symbol edits,
// ordered rows, history candles, stored quotes, metrics and the websocket
// row stream.
package server

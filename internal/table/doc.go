// Package table holds the live quote rows.
//
// A Table is the keyed row collection for one symbol list: rows are created
// on a symbol's first successful fetch, updated in place on later ones and
// only removed explicitly. A Board keeps one Table per watchlist group and
// is the poller's sink.
package table

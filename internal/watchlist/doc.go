// Package watchlist persists the user's symbol groups.
//
// Groups live in a JSON file (default ~/.stockMonitor/groups.json):
//
//	{"groups":[{"name":"自选","stocks":[{"marketCode":"0","stockCode":"000001"}]}]}
//
// An optional stocks.csv next to it is exposed read-only as the group 全部.
// Every mutation is written back atomically. Watch reloads the files when
// they are edited outside the process.
package watchlist

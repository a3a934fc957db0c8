// Command stockwatch polls realtime quotes for a watchlist of A-share
// symbols and serves the reconciled rows over HTTP and websocket.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

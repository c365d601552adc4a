// Command memotag runs bulk tag enrichment and maintenance tasks against
// the memo database from the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

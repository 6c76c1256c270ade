// Command debtctl plans loan payoffs from a loan file or a ledger.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

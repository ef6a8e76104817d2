// Package main is the entry point for the matchelo CLI tool, which rates
// competitors over a match ledger and builds feature vectors for outcome models.
package main

import "github.com/pable/go-match-elo/cmd"

func main() {
	cmd.Execute()
}

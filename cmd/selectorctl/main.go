// Package main is the entry point for selectorctl, a command-line client
// for the selector query language.
package main

import (
	"fmt"
	"os"

	"github.com/vitaliisemenov/selector-engine/cmd/selectorctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Swapcheck evaluates engine swap compatibility against declarative rules.
//
// Usage:
//
//	# Check the rule sources
//	swapcheck validate ./rules
//
//	# Evaluate a donor engine against a target engine
//	swapcheck evaluate EJ205 EJ22E --rules ./rules
//
//	# Evaluate against a chassis and keep the result
//	swapcheck evaluate FB25 --vehicle impreza-1997-us --record
//
//	# Store rules and catalog in SQLite
//	swapcheck import --rules ./rules --db swapcheck.db
//
//	# Run rule scenarios
//	swapcheck test ./scenarios
package main

import (
	"fmt"
	"os"

	"github.com/roach88/swapcheck/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}

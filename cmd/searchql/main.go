// Command searchql compiles search box queries into parameterized SQL.
package main

import (
	"os"

	"github.com/roach88/searchql/internal/cli"
)

func main() {
	// Subcommands report their own errors; cobra prints the rest.
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}

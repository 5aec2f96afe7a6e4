// Command ormminus rewrites ORM conceptual schemas into ORM-.
package main

import (
	"os"

	"github.com/roach88/ormminus/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}

// Command rulec compiles structured wargame rules into event-handler
// programs.
package main

import (
	"os"

	"github.com/roach88/rulec/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Command testbench runs equivalence tests between backend implementations.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/testbench/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}

// Command moreevents runs and inspects event controller sessions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/moreevents/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

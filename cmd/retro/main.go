// Command retro is the command-line client for team retro boards.
package main

import (
	"fmt"
	"os"

	"github.com/theonlysinjin/team-retro/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}

// Command listsync serves shared lists and streams their changes to
// websocket clients.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/listsync/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

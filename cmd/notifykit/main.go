// Command notifykit is a terminal client for marketplace notifications.
package main

import (
	"fmt"
	"os"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

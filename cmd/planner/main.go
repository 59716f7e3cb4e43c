// Command planner runs goal projections and yield calculations from the terminal.
package main

import (
	"os"

	"github.com/warp/goal-planner/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

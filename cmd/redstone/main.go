package main

import (
	"fmt"
	"os"

	"github.com/stijnvanbael/redstone/cmd/redstone/commands"
)

var version = "dev"

func main() {
	if err := commands.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/lightningtw/dispatchd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

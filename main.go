package main

import (
	"os"

	"github.com/pitwall/trackrelay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/gnemet/lookin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

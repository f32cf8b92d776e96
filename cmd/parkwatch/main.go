package main

import (
	"os"

	"github.com/solatis/parkwatch/cmd/parkwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

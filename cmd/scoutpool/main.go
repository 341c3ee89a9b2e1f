package main

import (
	"os"

	"github.com/scoutpool/scoutpool/cmd/scoutpool/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

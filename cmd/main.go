package main

import (
	"os"

	"github.com/soundprediction/pathfinder/cmd/pathfinder"
)

func main() {
	if err := pathfinder.Execute(); err != nil {
		os.Exit(1)
	}
}

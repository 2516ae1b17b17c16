package main

import (
	"os"

	"github.com/nhle/forum-inbox/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

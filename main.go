package main

import (
	"os"

	"github.com/moku180/legalaichatbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

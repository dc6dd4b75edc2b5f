package main

import (
	"os"

	"github.com/ezhulati/liftout-platform-sub011/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/avinashm/careerpath/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	arenatapescmder "github.com/papercomputeco/arenatapes/cmd/arenatapes"
)

func main() {
	cmd := arenatapescmder.NewArenatapesCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

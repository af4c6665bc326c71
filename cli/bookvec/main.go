package main

import (
	"os"

	bookveccmder "github.com/papyri/bookvec/cmd/bookvec"
)

func main() {
	cmd := bookveccmder.NewBookvecCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

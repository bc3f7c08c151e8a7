package main

import (
	"os"

	"github.com/hashicorp-forge/hermes-export/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}

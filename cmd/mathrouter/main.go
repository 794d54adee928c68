package main

import (
	"os"

	"github.com/mathrouter/mathrouter/internal/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:], os.Stderr))
}

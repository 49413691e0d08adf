package main

import (
	"os"

	"github.com/funvibe/regionck/pkg/cli"
)

func main() {
	os.Exit(cli.New().Execute())
}

package main

import (
	"os"

	"github.com/docmorph/docmorph/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}

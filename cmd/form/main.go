// Command form splits a Rust source file with inline modules into a tree
// of files, one per module.
package main

import (
	"os"

	"github.com/roach88/form/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}

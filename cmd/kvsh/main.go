// cmd/kvsh/main.go
//
// kvsh - interactive shell over a masstree.Tree.
//
// Usage:
//
//	kvsh
//
// Every session starts with a fresh, empty, in-memory tree. Use .help for
// available commands.
package main

import (
	"os"

	"masstree/pkg/cli"
)

func main() {
	repl := cli.NewREPL(os.Stdout, os.Stderr)
	defer repl.Close()

	repl.Run()
}

// pkg/cli/repl.go
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"masstree/pkg/kvadapter"
)

// REPL provides a Read-Eval-Print Loop for interactive kvsh sessions.
type REPL struct {
	// ctx is the underlying tree context
	ctx *kvadapter.Context

	// worker is this REPL's thread context onto ctx
	worker *kvadapter.ThreadContext

	// shell handles input/output and command parsing
	shell *Shell

	// output is where results are written
	output io.Writer

	// errOutput is where errors are written
	errOutput io.Writer

	// running indicates if the REPL is currently running
	running bool

	// exitRequested indicates that .exit was called
	exitRequested bool
}

// NewREPL creates a new REPL with a fresh, empty tree, reading commands
// from os.Stdin. Results are written to output and errors to errOutput.
func NewREPL(output, errOutput io.Writer) *REPL {
	return NewREPLWithInput(os.Stdin, output, errOutput)
}

// NewREPLWithInput creates a new REPL with custom input/output streams.
// This is useful for testing or scripted operation.
func NewREPLWithInput(input io.Reader, output, errOutput io.Writer) *REPL {
	ctx := kvadapter.KVCreateContext(0)
	worker := kvadapter.KVThreadCreateContext(ctx)
	shell := NewShell(input, output, errOutput)

	return &REPL{
		ctx:     ctx,
		worker:  worker,
		shell:   shell,
		output:  output,
		errOutput: errOutput,
		running: false,
	}
}

// Close tears down the REPL's thread context. The underlying tree is not
// destroyed: nothing else observes it once the REPL exits.
func (r *REPL) Close() {
	kvadapter.KVThreadDestroyContext(r.worker)
}

// Run starts the REPL loop, reading and executing commands until EOF or
// .exit.
func (r *REPL) Run() {
	r.running = true
	r.exitRequested = false

	fmt.Fprintln(r.output, "kvsh - interactive trie-of-B+-trees shell")
	fmt.Fprintln(r.output, "Enter \".help\" for usage hints.")

	for r.running && !r.exitRequested {
		cmd, eof := r.shell.ReadCommand()

		if eof && cmd == "" {
			fmt.Fprintln(r.output)
			break
		}

		if cmd == "" {
			if eof {
				break
			}
			continue
		}

		if strings.HasPrefix(cmd, ".") {
			r.handleDotCommand(cmd)
		} else {
			r.execute(cmd)
		}

		if eof {
			break
		}
	}

	r.running = false
}

// execute parses and runs one non-dot command line.
func (r *REPL) execute(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch strings.ToLower(fields[0]) {
	case "put":
		r.cmdPut(fields[1:])
	case "get":
		r.cmdGet(fields[1:])
	case "del":
		r.cmdDel(fields[1:])
	case "scan":
		r.cmdScan(fields[1:])
	default:
		fmt.Fprintf(r.errOutput, "Unknown command: %s\n", fields[0])
		fmt.Fprintln(r.errOutput, "Use \".help\" for usage hints.")
	}
}

func (r *REPL) cmdPut(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(r.errOutput, "usage: put <key> <value>")
		return
	}
	key, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(r.errOutput, "Error: invalid key %q: %v\n", args[0], err)
		return
	}
	value := strings.Join(args[1:], " ")
	if err := r.worker.KVPut(key, value); err != nil {
		r.printError(err)
		return
	}
	fmt.Fprintln(r.output, "OK")
}

func (r *REPL) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.errOutput, "usage: get <key>")
		return
	}
	key, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(r.errOutput, "Error: invalid key %q: %v\n", args[0], err)
		return
	}
	value, ok := r.worker.KVGet(key)
	if !ok {
		fmt.Fprintln(r.output, "(not found)")
		return
	}
	fmt.Fprintln(r.output, value)
}

func (r *REPL) cmdDel(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.errOutput, "usage: del <key>")
		return
	}
	key, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(r.errOutput, "Error: invalid key %q: %v\n", args[0], err)
		return
	}
	existed, err := r.worker.KVDel(key)
	if err != nil {
		r.printError(err)
		return
	}
	if existed {
		fmt.Fprintln(r.output, "OK")
	} else {
		fmt.Fprintln(r.output, "(not found)")
	}
}

func (r *REPL) cmdScan(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(r.errOutput, "usage: scan <start> [limit]")
		return
	}
	start, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(r.errOutput, "Error: invalid key %q: %v\n", args[0], err)
		return
	}
	limit := 0
	if len(args) > 1 {
		limit, err = strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(r.errOutput, "Error: invalid limit %q: %v\n", args[1], err)
			return
		}
	}

	keys, values := r.worker.KVScan(start, limit)
	for i := range keys {
		fmt.Fprintf(r.output, "%d\t%v\n", keys[i], values[i])
	}
	fmt.Fprintf(r.output, "%d row(s)\n", len(keys))
}

// handleDotCommand processes special dot commands.
func (r *REPL) handleDotCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch strings.ToLower(parts[0]) {
	case ".exit", ".quit":
		r.exitRequested = true
	case ".help":
		r.printHelp()
	case ".stats":
		r.printStats()
	default:
		fmt.Fprintf(r.errOutput, "Unknown command: %s\n", parts[0])
		fmt.Fprintln(r.errOutput, "Use \".help\" for usage hints.")
	}
}

// printHelp displays help information.
func (r *REPL) printHelp() {
	help := `
put <key> <value>  Insert or overwrite a key
get <key>          Look up a key
del <key>          Remove a key
scan <start> [n]   Iterate n keys (or all) from start in ascending order
.stats             Show split/layer-birth/retirement counters
.exit              Exit this program
.help              Show this help message
.quit              Exit this program
`
	fmt.Fprintln(r.output, help)
}

// printStats reports the tree's structural counters.
func (r *REPL) printStats() {
	fmt.Fprintf(r.output, "splits=%d layer_births=%d retirements=%d\n",
		r.ctx.Stats().Splits, r.ctx.Stats().LayerBirths, r.ctx.Stats().Retirements)
}

func (r *REPL) printError(err error) {
	fmt.Fprintf(r.errOutput, "Error: %v\n", err)
}

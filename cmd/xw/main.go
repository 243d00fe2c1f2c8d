package main

import (
	"fmt"
	"os"

	"github.com/titpetric/xw/cmd/xw/commands/format"
	"github.com/titpetric/xw/cmd/xw/commands/render"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 {
		usage()
		return fmt.Errorf("xw: missing command")
	}

	switch args[1] {
	case "render":
		return render.Run(args[2:])
	case "format":
		return format.Run(args[2:])
	default:
		usage()
		return fmt.Errorf("xw: unknown command %q", args[1])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: xw <command> [arguments]

Commands:
  render   render an xw template with data
  format   parse and re-emit an xw template (round-trip)

Run "xw <command>" with no arguments for command-specific usage.`)
}

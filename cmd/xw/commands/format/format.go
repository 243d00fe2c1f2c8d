// Package format implements the "xw format" subcommand: parse a template
// and re-emit it through the default buffered callbacks, normalising
// shorthand attributes and whitespace without changing document semantics.
//
// xw's grammar is deliberately non-conformant (lenient tag matching, no
// entity decoding, #id/.class shorthand) and cannot be represented by a
// conformant tree like golang.org/x/net/html, so unlike the teacher's
// indentation-aware pretty-printer this command is a normalize-via-reparse
// round trip: it is exactly what Context.Parse already does.
package format

import (
	"flag"
	"fmt"
	"os"

	"github.com/titpetric/xw"
)

// Run executes the format command with the given arguments.
func Run(args []string) error {
	fs := flag.NewFlagSet("format", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, Usage())
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	positional := fs.Args()
	if len(positional) != 1 {
		fs.Usage()
		return fmt.Errorf("format: requires exactly 1 argument")
	}

	content, err := os.ReadFile(positional[0])
	if err != nil {
		return fmt.Errorf("reading template file: %w", err)
	}

	c := xw.NewContext(xw.NewOptions(xw.WithBuffer()))
	out, err := c.Parse(string(content))
	if err != nil {
		return fmt.Errorf("formatting template: %w", err)
	}

	fmt.Print(out)
	return nil
}

// Usage returns the usage string for the format command.
func Usage() string {
	return `xw format <file.xw>

Parse an xw template and re-emit it in normalised form.

Examples:
  xw format index.xw`
}

// Package render implements the "xw render" subcommand: parse a template
// file (resolving any #template directive it contains) and print the
// synthesised document to stdout.
package render

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"

	"github.com/titpetric/xw"
)

// Run executes the render command with the given arguments.
func Run(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, Usage())
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	positional := fs.Args()
	if len(positional) < 1 || len(positional) > 2 {
		fs.Usage()
		return fmt.Errorf("render: requires a template file and an optional data file")
	}

	tplFile := positional[0]

	var data map[string]any
	if len(positional) == 2 {
		content, err := os.ReadFile(positional[1])
		if err != nil {
			return fmt.Errorf("reading data file: %w", err)
		}
		if err := yaml.Unmarshal(content, &data); err != nil {
			return fmt.Errorf("parsing data file: %w", err)
		}
	}

	dir := filepath.Dir(tplFile)
	name := filepath.Base(tplFile)
	templateFS := os.DirFS(dir)

	opts := xw.NewOptions(xw.WithBuffer(), xw.WithFS(templateFS), xw.WithRootPath("."))
	c := xw.NewContext(opts)

	entry, err := c.FromFile(context.Background(), templateFS, name, data, true)
	if err != nil {
		return fmt.Errorf("rendering template: %w", err)
	}

	fmt.Print(c.ExportCopy(entry))
	return nil
}

// Usage returns the usage string for the render command.
func Usage() string {
	return `xw render <file.xw> [data.yml]

Render an xw template. An optional YAML data file is parsed and passed to
the parser as its opaque user value; {{ }} expressions are not evaluated.

Examples:
  xw render index.xw
  xw render index.xw data.yml`
}

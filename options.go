package xw

import (
	"io/fs"
	"log"
	"strings"
)

// Logger is the minimal diagnostic sink the parser writes to for non-fatal
// conditions (currently: a failed template resolution inside #template).
// log.Logger satisfies this, as does any other structured logger that
// exposes a printf-style method.
type Logger interface {
	Printf(format string, args ...any)
}

// Callbacks is the capability record the state machine drives: four content
// hooks plus one end-of-parse hook. output is the destination builder
// supplied to Write (nil when Options.Buffer is false and the caller didn't
// provide one); stack is the tag stack at the time of the call; user is the
// opaque handle passed to Write/FromFile.
type Callbacks struct {
	OnText       func(output *strings.Builder, stack []string, text string, user any)
	OnOpeningTag func(output *strings.Builder, stack []string, tag string, user any)
	OnClosingTag func(output *strings.Builder, stack []string, tag string, user any)
	OnInline     func(output *strings.Builder, stack []string, expr string, user any)
	OnEnd        func(user any)
}

// DefaultCallbacks returns the buffered reconstruction callbacks described in
// SPEC_FULL.md §4.1: text is appended verbatim, opening/closing tags are
// reconstructed, and inline expressions become a data-reactive span.
func DefaultCallbacks() Callbacks {
	return Callbacks{
		OnText: func(output *strings.Builder, _ []string, text string, _ any) {
			if output != nil {
				output.WriteString(text)
			}
		},
		OnOpeningTag: func(output *strings.Builder, _ []string, tag string, _ any) {
			if output != nil {
				output.WriteByte('<')
				output.WriteString(tag)
			}
		},
		OnClosingTag: func(output *strings.Builder, _ []string, tag string, _ any) {
			if output != nil {
				output.WriteString("</")
				output.WriteString(tag)
				output.WriteByte('>')
			}
		},
		OnInline: func(output *strings.Builder, _ []string, expr string, _ any) {
			if output != nil {
				output.WriteString(`<span data-reactive="`)
				output.WriteString(expr)
				output.WriteString(`"></span>`)
			}
		},
	}
}

// Options configures a Context. Build one with NewOptions and the With*
// functional options below, in the style of a functional-options
// constructor.
type Options struct {
	// Buffer installs DefaultCallbacks for any callback left nil, and makes
	// Write fail with ArgumentError when no output builder is supplied.
	Buffer bool

	// Compact collapses text-node whitespace runs; always true inside <head>
	// regardless of this setting.
	Compact bool

	// Vanilla disables the xw-specific syntax (shorthand attributes,
	// {{ }} interpolation, scope:: directives): bytes are forwarded as plain
	// HTML. See SPEC_FULL.md §9 for the resolution of this option's
	// previously-advisory-only status.
	Vanilla bool

	// Header is prepended to the synthesised <html> wrapper at export,
	// unescaped. Callers accepting untrusted header strings must
	// html.EscapeString them before constructing Options.
	Header string

	// RootPath prefixes relative #template paths. InlineFile paths are used
	// as given.
	RootPath string

	// DisableTemplates turns off #template resolution: the header line is
	// still parsed and stripped, but the referenced file is never loaded or
	// linked. scope::tag directives are handled the same as without it.
	DisableTemplates bool

	// FS is the filesystem FromFile and InlineFile resolve paths against.
	FS fs.FS

	// Cache shares a FileCache across Contexts so that a template edited on
	// disk invalidates every document that depends on it. A private cache
	// is created when nil.
	Cache *FileCache

	Callbacks

	// Logger receives diagnostics for non-fatal failures (currently:
	// FilesystemError from an unresolvable #template path). Defaults to
	// log.Default() when nil.
	Logger Logger
}

// Option configures an Options value.
type Option func(*Options)

// NewOptions builds an Options from the given functional options.
func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Buffer {
		fillDefaultCallbacks(&o.Callbacks)
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

func fillDefaultCallbacks(c *Callbacks) {
	d := DefaultCallbacks()
	if c.OnText == nil {
		c.OnText = d.OnText
	}
	if c.OnOpeningTag == nil {
		c.OnOpeningTag = d.OnOpeningTag
	}
	if c.OnClosingTag == nil {
		c.OnClosingTag = d.OnClosingTag
	}
	if c.OnInline == nil {
		c.OnInline = d.OnInline
	}
}

// WithBuffer enables buffered output with default callbacks.
func WithBuffer() Option { return func(o *Options) { o.Buffer = true } }

// WithCompact enables whitespace-collapsing text nodes.
func WithCompact() Option { return func(o *Options) { o.Compact = true } }

// WithVanilla disables xw-specific syntax.
func WithVanilla() Option { return func(o *Options) { o.Vanilla = true } }

// WithHeader sets the wrapper header string inserted by ExportCopy.
func WithHeader(header string) Option { return func(o *Options) { o.Header = header } }

// WithRootPath sets the prefix used to resolve #template paths.
func WithRootPath(root string) Option { return func(o *Options) { o.RootPath = root } }

// WithCallbacks overrides individual callbacks; unset fields remain nil, or
// are filled with defaults by NewOptions if WithBuffer is also given (in
// either order, since filling happens after all options are applied).
func WithCallbacks(c Callbacks) Option { return func(o *Options) { o.Callbacks = c } }

// WithLogger sets the diagnostic sink for non-fatal parser conditions.
func WithLogger(l Logger) Option { return func(o *Options) { o.Logger = l } }

// WithFS binds the filesystem FromFile and InlineFile resolve paths against.
func WithFS(fsys fs.FS) Option { return func(o *Options) { o.FS = fsys } }

// WithFileCache shares fc across every Context built from these Options.
func WithFileCache(fc *FileCache) Option { return func(o *Options) { o.Cache = fc } }

// WithTemplatesDisabled turns off #template resolution; see
// Options.DisableTemplates.
func WithTemplatesDisabled() Option { return func(o *Options) { o.DisableTemplates = true } }

// Package xw implements a single-pass, resumable parser-transformer for the
// xw template language: an HTML superset with shorthand attributes
// (#id, .class), reactive {{ expr }} interpolation, scope::tag template
// directives, and an <ls::template> sub-compiler that emits JavaScript
// DOM-construction functions. See SPEC_FULL.md for the full design.
package xw

import (
	"context"
	"io/fs"
	"strings"

	"github.com/titpetric/xw/internal/cache"
)

// Entry is a cached, parsed document (or template). It is a re-export of the
// internal cache entry type so callers can hold a reference without
// importing an internal package.
type Entry = cache.Entry

// FileCache is the process-wide (or host-scoped) store of parsed templates
// described by SPEC_FULL.md §4.5. Share one FileCache across Contexts via
// WithFileCache to get the dependent-template invalidation behaviour; each
// Context otherwise gets its own private cache.
type FileCache = cache.Cache

// NewFileCache creates an empty FileCache.
func NewFileCache() *FileCache { return cache.New() }

const templateHeaderPrefix = "#template "

// jsState is the <ls::template> compile state described in SPEC_FULL.md §3:
// a growing JavaScript source buffer accumulated across every captured
// <ls::template> block seen since the last End(), plus the set of function
// names already emitted (for collision disambiguation).
type jsState struct {
	source    strings.Builder
	seenNames map[string]bool
}

// Context is the parsing context: the byte-level state machine plus all the
// fields the specification's §3 data model enumerates. A Context is not
// reentrant — callers must serialise Write/End/FromFile calls on the same
// Context (concurrent parsing uses separate Contexts); see SPEC_FULL.md §5.
type Context struct {
	opts Options

	// Source range cursors (SPEC_FULL.md §3). input is immutable for the
	// duration of one Write/resume cycle; slicing it is zero-copy.
	input      string
	it         int
	chunkEnd   int
	valueStart int

	state state

	stringChar        byte
	endTagFlag        bool
	spaceBroken       bool
	flagAppendToClass bool
	isTemplateScope   bool
	isRaw             bool
	renderElement     bool
	classBuffer       strings.Builder
	bodyAttributes    string
	insideHead        bool
	templateScope     string
	templateEnabled   bool
	rootPath          string

	// curTag/curTagIsLsTemplate describe the tag currently being parsed once
	// its name is known, carried from TagName into Attribute/AttributeValue.
	curTag             string
	curTagIsLsTemplate bool

	// rawTagName is the open raw element's name while in stateRawElement
	// (empty when capturing an <ls::template> body instead).
	rawTagName string

	// inlineStart is the byte offset of the "{{" that started the current
	// InlineValue token, kept for the malformed-expression fallback in §7.
	inlineStart int

	// ls::template capture state (SPEC_FULL.md §3/§4.6).
	lsCapturing     bool
	lsCaptureStart  int
	lsCaptureID     string
	lsWantCaptureID bool

	js jsState

	output     *strings.Builder
	cache      *FileCache
	cacheEntry *Entry
	fsys       fs.FS
	goctx      context.Context

	tagStack []string

	user any
	err  error

	// freshDocument is true only for the very first Write after
	// construction/reset; it gates the "#template <path>\n" header check
	// described in SPEC_FULL.md §4.2, which only ever applies to the first
	// bytes of a logical document, not to every Write call on a Context
	// whose state is being carried across calls.
	freshDocument bool
}

// NewContext creates a Context configured with opts.
func NewContext(opts Options) *Context {
	c := &Context{
		opts:            opts,
		rootPath:        opts.RootPath,
		templateEnabled: !opts.DisableTemplates,
		cache:           opts.Cache,
		fsys:            opts.FS,
	}
	if c.cache == nil {
		c.cache = cache.New()
	}
	c.js.seenNames = make(map[string]bool)
	c.resetAfterEnd()
	return c
}

func (c *Context) outputLen() int {
	if c.output == nil {
		return 0
	}
	return c.output.Len()
}

// emitText runs the compaction rule (always-on inside <head>, otherwise
// gated by Options.Compact) and the backslash-escape rule for "\{{" before
// invoking OnText.
func (c *Context) emitText(raw string) {
	if raw == "" {
		return
	}
	text := unescapeInlineEscape(raw)
	if c.opts.Compact || c.insideHead {
		text = collapseWhitespace(text)
	}
	if c.opts.Callbacks.OnText != nil {
		c.opts.Callbacks.OnText(c.output, c.tagStack, text, c.user)
	}
}

func unescapeInlineEscape(s string) string {
	if !strings.Contains(s, `\{{`) {
		return s
	}
	return strings.ReplaceAll(s, `\{{`, "{{")
}

// collapseWhitespace collapses runs of ASCII whitespace into a single space,
// implementing Options.Compact (and the always-on <head> case).
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteByte(ch)
	}
	return b.String()
}

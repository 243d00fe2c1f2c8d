package xw

import "strings"

// position is the snapshot saved and restored around a nested file parse
// (template resolution or an explicit InlineFile), per SPEC_FULL.md §4.7.
// Only the cursor/output/cache-entry fields travel; tag_stack, inside_head,
// body_attributes and the rest of the document-shaped state are
// deliberately shared with the nested parse. For InlineFile that sharing is
// the point (the file continues the current document); for template
// resolution the TemplatePath header is always the very first thing read
// from a fresh document, before any of that state has diverged from its
// zero value.
type position struct {
	input      string
	it         int
	chunkEnd   int
	valueStart int
	output     *strings.Builder
	cacheEntry *Entry
}

func (c *Context) savePosition() position {
	return position{
		input:      c.input,
		it:         c.it,
		chunkEnd:   c.chunkEnd,
		valueStart: c.valueStart,
		output:     c.output,
		cacheEntry: c.cacheEntry,
	}
}

func (c *Context) restorePosition(p position) {
	c.input = p.input
	c.it = p.it
	c.chunkEnd = p.chunkEnd
	c.valueStart = p.valueStart
	c.output = p.output
	c.cacheEntry = p.cacheEntry
}

// InlineFile splices the content of path into the current output stream at
// the current position, parsing it with the same Context (so shorthand
// attributes, {{ }} interpolation and nested tags behave exactly as if the
// file's bytes had appeared inline in the caller's document), then restores
// the caller's parsing position.
func (c *Context) InlineFile(path string) error {
	if c.fsys == nil {
		return &IOError{Path: path, Err: errNoFilesystem}
	}
	data, _, err := readFile(c.fsys, path)
	if err != nil {
		return wrapReadError(path, err)
	}

	saved := c.savePosition()
	c.input = data
	c.it = 0
	c.chunkEnd = len(data)
	c.valueStart = 0
	c.resume()
	err = c.err
	c.err = nil
	c.restorePosition(saved)
	return err
}

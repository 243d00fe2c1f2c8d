package xw

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/titpetric/xw/internal/cache"
)

var errNoFilesystem = errors.New("no filesystem bound to context")

// Write feeds input into the state machine, continuing whatever document is
// already in progress (tag stack, <head> tracking, scope::template state,
// and the <ls::template> JS accumulator all persist across calls — End is
// the sole reset point, per SPEC_FULL.md §9). output receives buffered
// callback writes; it may be nil only when Options.Buffer is false.
func (c *Context) Write(input string, output *strings.Builder, user any, rootPath string) error {
	if c.opts.Buffer && output == nil {
		return &ArgumentError{Message: "write: buffered mode requires an output builder"}
	}

	c.input = input
	c.it = 0
	c.chunkEnd = len(input)
	c.valueStart = 0
	c.output = output
	c.user = user
	if rootPath != "" {
		c.rootPath = rootPath
	}

	if c.freshDocument {
		c.freshDocument = false
		if strings.HasPrefix(input, templateHeaderPrefix) {
			c.state = stateTemplatePath
			c.it = len(templateHeaderPrefix)
			c.valueStart = c.it
		}
	}

	c.resume()
	return c.err
}

// End drains any still-open tags (firing OnClosingTag bottom-up), fires
// OnEnd, prepends any compiled <ls::template> JavaScript to the output, and
// resets the Context to its just-constructed state.
func (c *Context) End() error {
	open := append([]string(nil), c.tagStack...)
	for _, tag := range open {
		if c.opts.Callbacks.OnClosingTag != nil {
			c.opts.Callbacks.OnClosingTag(c.output, c.tagStack, tag, c.user)
		}
	}
	c.tagStack = c.tagStack[:0]

	if c.opts.Callbacks.OnEnd != nil {
		c.opts.Callbacks.OnEnd(c.user)
	}

	if c.js.source.Len() > 0 && c.output != nil {
		rest := c.output.String()
		c.output.Reset()
		c.output.WriteString("<script>\n")
		c.output.WriteString(c.js.source.String())
		c.output.WriteString("</script>\n")
		c.output.WriteString(rest)
	}

	err := c.err
	c.resetAfterEnd()
	return err
}

func (c *Context) resetAfterEnd() {
	c.state = stateText
	c.stringChar = 0
	c.endTagFlag = false
	c.spaceBroken = false
	c.flagAppendToClass = false
	c.isTemplateScope = false
	c.isRaw = false
	c.renderElement = false
	c.classBuffer.Reset()
	c.bodyAttributes = ""
	c.insideHead = false
	c.templateScope = ""
	c.curTag = ""
	c.curTagIsLsTemplate = false
	c.rawTagName = ""
	c.lsCapturing = false
	c.lsCaptureID = ""
	c.lsWantCaptureID = false
	c.js.source.Reset()
	c.js.seenNames = make(map[string]bool)
	c.err = nil
	c.tagStack = c.tagStack[:0]
	c.freshDocument = true
}

// Parse is a convenience wrapper: write then end into a fresh string.
func (c *Context) Parse(input string) (string, error) {
	var out strings.Builder
	if err := c.Write(input, &out, nil, ""); err != nil {
		return "", err
	}
	if err := c.End(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// readFile loads path from fsys, rejecting anything over the 10 MiB limit
// before reading its content.
func readFile(fsys fs.FS, path string) (string, time.Time, error) {
	info, err := fs.Stat(fsys, path)
	if err != nil {
		return "", time.Time{}, err
	}
	if info.Size() > cache.MaxFileSize {
		return "", time.Time{}, &SizeError{Path: path, Size: info.Size(), Limit: cache.MaxFileSize}
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return "", time.Time{}, err
	}
	return string(data), info.ModTime(), nil
}

func wrapReadError(path string, err error) error {
	var sizeErr *SizeError
	if errors.As(err, &sizeErr) {
		return sizeErr
	}
	return &IOError{Path: path, Err: err}
}

// FromFile parses (or returns the cached parse of) the file at path within
// fsys, recursively resolving any #template directive it contains into a
// separate cache entry. checkCache=false forces a re-parse even if a fresh
// entry already exists, used internally when resolving a template that is
// itself already known to need updating.
func (c *Context) FromFile(ctx context.Context, fsys fs.FS, path string, user any, checkCache bool) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	norm := cache.Normalize(path)

	if checkCache {
		if entry, ok := c.cache.Get(norm); ok {
			stale, err := c.cache.NeedsUpdate(fsys, norm)
			if err != nil {
				return nil, err
			}
			if !stale {
				return entry, nil
			}
			if docFresh, tmplStale := c.templateOnlyStale(entry, fsys, norm); docFresh && tmplStale {
				tmpl, err := c.FromFile(ctx, fsys, entry.Template.Path, user, false)
				if err != nil {
					return nil, err
				}
				entry.Template = tmpl
				entry.TemplateModTime = tmpl.ModTime
				entry.TemplateChunkSplit = tmpl.TemplateChunkSplit
				c.cache.Store(entry)
				return entry, nil
			}
		}
	}

	data, modTime, err := readFile(fsys, norm)
	if err != nil {
		c.cache.Delete(norm)
		var sizeErr *SizeError
		if errors.As(err, &sizeErr) {
			return nil, sizeErr
		}
		return nil, &IOError{Path: norm, Err: err}
	}

	saved := c.savePosition()
	savedFsys, savedCtx := c.fsys, c.goctx
	c.fsys = fsys
	c.goctx = ctx

	entry := &Entry{Path: norm, ModTime: modTime}
	c.cacheEntry = entry

	var out strings.Builder
	writeErr := c.Write(data, &out, user, dirOf(norm))
	var endErr error
	if writeErr == nil {
		endErr = c.End()
	}

	c.fsys, c.goctx = savedFsys, savedCtx
	c.restorePosition(saved)

	if writeErr != nil {
		c.cache.Delete(norm)
		return nil, writeErr
	}
	if endErr != nil {
		c.cache.Delete(norm)
		return nil, endErr
	}

	entry.Content = out.String()
	c.cache.Store(entry)
	return entry, nil
}

// templateOnlyStale reports whether entry's own content is still current
// but its linked template has gone stale, the one case where FromFile
// re-parses just the template instead of the whole document.
func (c *Context) templateOnlyStale(entry *Entry, fsys fs.FS, path string) (docFresh bool, tmplStale bool) {
	info, err := fs.Stat(fsys, path)
	if err != nil {
		return false, false
	}
	if !info.ModTime().Equal(entry.ModTime) {
		return false, false
	}
	if entry.Template == nil {
		return true, false
	}
	tinfo, err := fs.Stat(fsys, entry.Template.Path)
	if err != nil {
		return true, true
	}
	return true, !tinfo.ModTime().Equal(entry.TemplateModTime)
}

// NeedsUpdate reports whether the cached entry for path (if any) is stale
// relative to fsys, per the rules in SPEC_FULL.md §4.5.
func (c *Context) NeedsUpdate(fsys fs.FS, path string) (bool, error) {
	return c.cache.NeedsUpdate(fsys, cache.Normalize(path))
}

// ExportCopy synthesises the final standalone document for entry, splicing
// its content into its linked template (if any) and carrying over the
// document's <head> contents. See splice.go.
func (c *Context) ExportCopy(entry *Entry) string {
	return exportCopy(entry, c.opts.Header)
}

func dirOf(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

package xw

import (
	"context"
	"path"
	"strings"

	"github.com/titpetric/xw/internal/cache"
)

// resolveTemplate is invoked from the TemplatePath state once a full
// "#template <path>" line has been read. It saves position, recursively
// resolves the referenced file as a separate cache entry (so it is itself
// subject to staleness checks independent of the document that references
// it), restores position, and links the result onto the current document's
// cache entry. A failure here is non-fatal: it is logged and the document
// continues to parse without a linked template (§4.4/§7).
func (c *Context) resolveTemplate(rawPath string) {
	if !c.templateEnabled || c.cacheEntry == nil || c.fsys == nil {
		return
	}

	full := cache.Normalize(path.Join(c.rootPath, rawPath))

	ctx := c.goctx
	if ctx == nil {
		ctx = context.Background()
	}

	saved := c.savePosition()
	tmpl, err := c.FromFile(ctx, c.fsys, full, c.user, true)
	c.restorePosition(saved)

	if err != nil {
		if c.opts.Logger != nil {
			c.opts.Logger.Printf("%v", &FilesystemError{Path: full, Err: err})
		}
		return
	}
	c.cacheEntry.Template = tmpl
	c.cacheEntry.TemplateModTime = tmpl.ModTime
	c.cacheEntry.TemplateChunkSplit = tmpl.TemplateChunkSplit
}

// exportCopy implements SPEC_FULL.md §4.4: splice entry's content into its
// linked template at the recorded scope::template split point, carrying the
// document's own <head> contents into the template's <head>.
func exportCopy(entry *Entry, header string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(header)
	b.WriteString("\n<html lang=\"en\">")

	if entry == nil {
		b.WriteString("</html>")
		return b.String()
	}

	if entry.Template == nil {
		b.WriteString(entry.Content)
		b.WriteString("</html>")
		return b.String()
	}

	docBody, headInner := extractHead(entry.Content)
	tmpl := entry.Template.Content
	split := entry.TemplateChunkSplit
	if split > len(tmpl) {
		split = len(tmpl)
	}

	tmplWithHead, inserted, beforeSplit := insertHead(tmpl, headInner, split)
	if beforeSplit {
		split += inserted
	}

	b.WriteString(tmplWithHead[:split])
	b.WriteString(docBody)
	b.WriteString(tmplWithHead[split:])
	b.WriteString("</html>")
	return b.String()
}

// extractHead removes the first <head>...</head> block from content and
// returns the document with that block removed alongside the block's inner
// bytes (empty if content has no <head>).
func extractHead(content string) (withoutHead string, headInner string) {
	start := strings.Index(content, "<head>")
	if start < 0 {
		return content, ""
	}
	innerStart := start + len("<head>")
	rel := strings.Index(content[innerStart:], "</head>")
	if rel < 0 {
		return content, ""
	}
	innerEnd := innerStart + rel
	closeEnd := innerEnd + len("</head>")
	return content[:start] + content[closeEnd:], content[innerStart:innerEnd]
}

// insertHead splices headInner just before the template's own </head>
// closing tag. beforeSplit reports whether that insertion point falls at or
// before split, meaning the caller must shift split forward by the number
// of inserted bytes so it still points at the same logical seam.
func insertHead(template, headInner string, split int) (result string, insertedLen int, beforeSplit bool) {
	if headInner == "" {
		return template, 0, false
	}
	idx := strings.Index(template, "</head>")
	if idx < 0 {
		return template, 0, false
	}
	result = template[:idx] + headInner + template[idx:]
	return result, len(headInner), idx <= split
}

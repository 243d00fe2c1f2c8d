// Package cache implements the process-wide file cache described by the xw
// parser specification: a map from normalised filesystem path to a cache
// entry carrying modification time, parsed content, and an optional link to
// a shared template entry.
//
// Cache is safe for concurrent use. Readers (Get, NeedsUpdate) take the read
// lock; writers (Store) take the write lock only to publish an already
// fully-prepared Entry, so file I/O never happens while the lock is held.
package cache

import (
	"io/fs"
	"path"
	"sync"
	"time"
)

// MaxFileSize is the largest file the cache will load. Files larger than
// this are rejected with a SizeError by the caller before Store is reached.
const MaxFileSize = 10 * 1024 * 1024 // 10 MiB

// Entry is one cached document. Template entries are shared: many document
// Entries may point at the same *Entry as their Template.
type Entry struct {
	// Path is the normalised path this entry was loaded from.
	Path string

	// Content is the parsed output for this file (not the raw source).
	Content string

	// ModTime is the on-disk modification time recorded when Content was produced.
	ModTime time.Time

	// Template is the linked template entry, or nil if this document has none.
	Template *Entry

	// TemplateModTime is the template's on-disk modification time recorded at
	// the time of linkage, used to detect a stale template independently of
	// this document's own staleness.
	TemplateModTime time.Time

	// TemplateChunkSplit is the byte offset into Template.Content marking
	// where this document's content is spliced in during export. It is only
	// meaningful when Template is non-nil, and it is recorded by the
	// template's own parse (see the scope::template directive), not this one.
	TemplateChunkSplit int
}

// Cache is a process-wide, path-keyed store of parsed templates.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*Entry)}
}

// Normalize lexically normalises a path the way the spec requires ("." and
// ".." collapsed), independent of the backing filesystem.
func Normalize(p string) string {
	return path.Clean(p)
}

// Get returns the entry for path, if present.
func (c *Cache) Get(p string) (*Entry, bool) {
	p = Normalize(p)
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[p]
	return e, ok
}

// Store publishes entry under its normalised Path. entry must be fully
// prepared (content parsed, mod time recorded) before calling Store; Store
// itself does no I/O and is therefore safe to call under its own lock.
func (c *Cache) Store(entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Normalize(entry.Path)] = entry
}

// Delete removes any cached entry for path, used to clear a partial entry
// after a failed load.
func (c *Cache) Delete(p string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, Normalize(p))
}

// NeedsUpdate reports whether the cached entry for path is stale:
//   - the entry is missing,
//   - the file no longer exists on fsys,
//   - the on-disk modification time differs from the stored value, or
//   - a linked template's on-disk modification time differs from the stored
//     template modification time.
//
// When the document itself is current but only the linked template is
// stale, callers should re-parse the template alone and leave the document
// entry untouched (see Context.templateOnlyStale in the xw package, which
// drives that re-parse from here).
func (c *Cache) NeedsUpdate(fsys fs.FS, p string) (bool, error) {
	entry, ok := c.Get(p)
	if !ok {
		return true, nil
	}

	info, err := fs.Stat(fsys, p)
	if err != nil {
		// File no longer exists (or is unreadable): treat as needing update,
		// swallowing the stat error per the tolerant staleness contract.
		return true, nil //nolint:nilerr
	}
	if !info.ModTime().Equal(entry.ModTime) {
		return true, nil
	}

	if entry.Template != nil {
		tinfo, err := fs.Stat(fsys, entry.Template.Path)
		if err != nil {
			return true, nil //nolint:nilerr
		}
		if !tinfo.ModTime().Equal(entry.TemplateModTime) {
			return true, nil
		}
	}

	return false, nil
}

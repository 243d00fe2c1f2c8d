package cache_test

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/titpetric/xw/internal/cache"
)

func TestNormalize(t *testing.T) {
	require.Equal(t, "a/b", cache.Normalize("./a/b"))
	require.Equal(t, "b", cache.Normalize("a/../b"))
}

func TestGetStoreDelete(t *testing.T) {
	c := cache.New()
	_, ok := c.Get("x.xw")
	require.False(t, ok)

	entry := &cache.Entry{Path: "./x.xw", Content: "hi"}
	c.Store(entry)

	got, ok := c.Get("x.xw")
	require.True(t, ok)
	require.Same(t, entry, got)

	c.Delete("x.xw")
	_, ok = c.Get("x.xw")
	require.False(t, ok)
}

func TestNeedsUpdateMissingEntry(t *testing.T) {
	c := cache.New()
	fsys := fstest.MapFS{"x.xw": {Data: []byte("hi")}}
	stale, err := c.NeedsUpdate(fsys, "x.xw")
	require.NoError(t, err)
	require.True(t, stale)
}

func TestNeedsUpdateFreshAndStale(t *testing.T) {
	mtime := time.Unix(1000, 0)
	fsys := fstest.MapFS{"x.xw": {Data: []byte("hi"), ModTime: mtime}}

	c := cache.New()
	c.Store(&cache.Entry{Path: "x.xw", ModTime: mtime})

	stale, err := c.NeedsUpdate(fsys, "x.xw")
	require.NoError(t, err)
	require.False(t, stale)

	fsys["x.xw"] = &fstest.MapFile{Data: []byte("hi2"), ModTime: mtime.Add(time.Second)}
	stale, err = c.NeedsUpdate(fsys, "x.xw")
	require.NoError(t, err)
	require.True(t, stale)
}

func TestNeedsUpdateMissingFile(t *testing.T) {
	c := cache.New()
	c.Store(&cache.Entry{Path: "gone.xw"})
	stale, err := c.NeedsUpdate(fstest.MapFS{}, "gone.xw")
	require.NoError(t, err)
	require.True(t, stale)
}

func TestNeedsUpdateStaleTemplate(t *testing.T) {
	docTime := time.Unix(1000, 0)
	tmplTime := time.Unix(2000, 0)
	fsys := fstest.MapFS{
		"doc.xw":  {Data: []byte("d"), ModTime: docTime},
		"base.xw": {Data: []byte("b"), ModTime: tmplTime},
	}

	c := cache.New()
	tmplEntry := &cache.Entry{Path: "base.xw", ModTime: tmplTime}
	c.Store(&cache.Entry{
		Path:            "doc.xw",
		ModTime:         docTime,
		Template:        tmplEntry,
		TemplateModTime: tmplTime,
	})

	stale, err := c.NeedsUpdate(fsys, "doc.xw")
	require.NoError(t, err)
	require.False(t, stale)

	fsys["base.xw"] = &fstest.MapFile{Data: []byte("b2"), ModTime: tmplTime.Add(time.Second)}
	stale, err = c.NeedsUpdate(fsys, "doc.xw")
	require.NoError(t, err)
	require.True(t, stale)
}

package xw_test

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/titpetric/xw"
)

func TestFromFileParsesAndCaches(t *testing.T) {
	fsys := fstest.MapFS{"a.xw": {Data: []byte("<p>hi</p>")}}
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithFS(fsys)))

	entry, err := c.FromFile(context.Background(), fsys, "a.xw", nil, true)
	require.NoError(t, err)
	require.Equal(t, "<p>hi</p>", entry.Content)

	again, err := c.FromFile(context.Background(), fsys, "a.xw", nil, true)
	require.NoError(t, err)
	require.Same(t, entry, again)
}

func TestFromFileReparsesAfterModTimeChange(t *testing.T) {
	mtime := time.Unix(1000, 0)
	fsys := fstest.MapFS{"a.xw": {Data: []byte("<p>hi</p>"), ModTime: mtime}}
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithFS(fsys)))

	entry, err := c.FromFile(context.Background(), fsys, "a.xw", nil, true)
	require.NoError(t, err)
	require.Equal(t, "<p>hi</p>", entry.Content)

	fsys["a.xw"] = &fstest.MapFile{Data: []byte("<p>bye</p>"), ModTime: mtime.Add(time.Second)}

	updated, err := c.FromFile(context.Background(), fsys, "a.xw", nil, true)
	require.NoError(t, err)
	require.Equal(t, "<p>bye</p>", updated.Content)
}

func TestFromFileMissingFileErrors(t *testing.T) {
	fsys := fstest.MapFS{}
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithFS(fsys)))

	_, err := c.FromFile(context.Background(), fsys, "missing.xw", nil, true)
	require.Error(t, err)

	var ioErr *xw.IOError
	require.ErrorAs(t, err, &ioErr)
}

func TestFromFileOversizeErrors(t *testing.T) {
	fsys := fstest.MapFS{"big.xw": {Data: make([]byte, 11*1024*1024)}}
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithFS(fsys)))

	_, err := c.FromFile(context.Background(), fsys, "big.xw", nil, true)
	require.Error(t, err)

	var sizeErr *xw.SizeError
	require.ErrorAs(t, err, &sizeErr)
}

func TestFromFileRespectsCanceledContext(t *testing.T) {
	fsys := fstest.MapFS{"a.xw": {Data: []byte("hi")}}
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithFS(fsys)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FromFile(ctx, fsys, "a.xw", nil, true)
	require.Error(t, err)
}

func TestNeedsUpdate(t *testing.T) {
	fsys := fstest.MapFS{"a.xw": {Data: []byte("hi")}}
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithFS(fsys)))

	stale, err := c.NeedsUpdate(fsys, "a.xw")
	require.NoError(t, err)
	require.True(t, stale)

	_, err = c.FromFile(context.Background(), fsys, "a.xw", nil, true)
	require.NoError(t, err)

	stale, err = c.NeedsUpdate(fsys, "a.xw")
	require.NoError(t, err)
	require.False(t, stale)
}

func TestFromFileSharedCacheInvalidatesAcrossContexts(t *testing.T) {
	mtime := time.Unix(1000, 0)
	fsys := fstest.MapFS{
		"doc.xw":  {Data: []byte("#template base.xw\n<body>hi</body>")},
		"base.xw": {Data: []byte(`<template::template></template::template>`), ModTime: mtime},
	}
	shared := xw.NewFileCache()

	c1 := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithFS(fsys), xw.WithFileCache(shared)))
	entry, err := c1.FromFile(context.Background(), fsys, "doc.xw", nil, true)
	require.NoError(t, err)
	require.NotNil(t, entry.Template)

	fsys["base.xw"] = &fstest.MapFile{
		Data:    []byte(`<template::template></template::template><footer>F</footer>`),
		ModTime: mtime.Add(time.Second),
	}

	c2 := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithFS(fsys), xw.WithFileCache(shared)))
	updated, err := c2.FromFile(context.Background(), fsys, "doc.xw", nil, true)
	require.NoError(t, err)
	require.Contains(t, updated.Template.Content, "footer")
}

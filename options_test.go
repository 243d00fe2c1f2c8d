package xw_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/titpetric/xw"
)

func TestNewOptionsBufferFillsDefaultCallbacks(t *testing.T) {
	opts := xw.NewOptions(xw.WithBuffer())
	require.NotNil(t, opts.OnText)
	require.NotNil(t, opts.OnOpeningTag)
	require.NotNil(t, opts.OnClosingTag)
	require.NotNil(t, opts.OnInline)
	require.NotNil(t, opts.Logger)
}

func TestNewOptionsWithoutBufferLeavesCallbacksNil(t *testing.T) {
	opts := xw.NewOptions()
	require.Nil(t, opts.OnText)
	require.Nil(t, opts.OnOpeningTag)
}

func TestWithCallbacksOverridesBeforeBufferFillsGaps(t *testing.T) {
	var called bool
	opts := xw.NewOptions(xw.WithCallbacks(xw.Callbacks{
		OnText: func(*strings.Builder, []string, string, any) { called = true },
	}), xw.WithBuffer())

	require.NotNil(t, opts.OnOpeningTag) // filled by WithBuffer
	opts.OnText(nil, nil, "x", nil)
	require.True(t, called)
}

func TestWriteWithoutOutputBufferErrors(t *testing.T) {
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer()))
	err := c.Write("hi", nil, nil, "")
	require.Error(t, err)

	var argErr *xw.ArgumentError
	require.ErrorAs(t, err, &argErr)
}

func TestWithHeaderAppliedOnExportCopy(t *testing.T) {
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithHeader(`<meta charset="utf-8">`)))
	out, err := c.Parse("hi")
	require.NoError(t, err)
	_ = out

	entry := &xw.Entry{Content: "hi"}
	doc := c.ExportCopy(entry)
	require.Contains(t, doc, `<meta charset="utf-8">`)
}

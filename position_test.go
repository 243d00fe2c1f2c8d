package xw_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/titpetric/xw"
)

func TestInlineFileBasic(t *testing.T) {
	fsys := fstest.MapFS{"partial.xw": {Data: []byte("<b>inc</b>")}}
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithFS(fsys)))

	var out strings.Builder
	err := c.Write("before ", &out, nil, "")
	require.NoError(t, err)

	require.NoError(t, c.InlineFile("partial.xw"))
	require.NoError(t, c.Write(" after", &out, nil, ""))
	require.NoError(t, c.End())

	require.Equal(t, "before <b>inc</b> after", out.String())
}

func TestInlineFileMissingFileErrors(t *testing.T) {
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithFS(fstest.MapFS{})))
	err := c.InlineFile("nope.xw")
	require.Error(t, err)

	var ioErr *xw.IOError
	require.ErrorAs(t, err, &ioErr)
}

func TestInlineFileWithoutFilesystemErrors(t *testing.T) {
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer()))
	err := c.InlineFile("x.xw")
	require.Error(t, err)
}

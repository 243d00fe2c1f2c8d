package charclass_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/titpetric/xw/internal/charclass"
)

func TestIsVoid(t *testing.T) {
	require.True(t, charclass.IsVoid("img"))
	require.True(t, charclass.IsVoid("br"))
	require.False(t, charclass.IsVoid("div"))
	require.False(t, charclass.IsVoid("script"))
}

func TestIsRaw(t *testing.T) {
	require.True(t, charclass.IsRaw("script"))
	require.True(t, charclass.IsRaw("textarea"))
	require.False(t, charclass.IsRaw("div"))
	require.False(t, charclass.IsRaw("img"))
}

func TestIsWhitespace(t *testing.T) {
	for _, b := range []byte{' ', '\t', '\n', '\r'} {
		require.True(t, charclass.IsWhitespace(b))
	}
	require.False(t, charclass.IsWhitespace('a'))
	require.False(t, charclass.IsWhitespace('>'))
}

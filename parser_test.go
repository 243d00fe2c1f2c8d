package xw_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/titpetric/xw"
)

func parse(t *testing.T, input string) string {
	t.Helper()
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer()))
	out, err := c.Parse(input)
	require.NoError(t, err)
	return out
}

// Scenario 1: shorthand #id/.class expand to id/class attributes.
func TestScenario_ShorthandAttributes(t *testing.T) {
	out := parse(t, `<div #main .foo.bar>hi</div>`)
	require.Contains(t, out, `<div id="main" class="foo bar">hi</div>`)
}

// Scenario 2: {{ expr }} text interpolation becomes a data-reactive span.
func TestScenario_InlineExpression(t *testing.T) {
	out := parse(t, `<p>a{{ user.name }}b</p>`)
	require.Equal(t, `<p>a<span data-reactive="user.name"></span>b</p>`, out)
}

// Scenario 3: raw-element opacity — <script> body passes through untouched.
func TestScenario_RawElementOpacity(t *testing.T) {
	out := parse(t, `<script>if (1<2) { x(); }</script>`)
	require.Equal(t, `<script>if (1<2) { x(); }</script>`, out)
}

// Scenario 6: void elements, self-closing or not, are never pushed and the
// self-closing slash is collapsed on export.
func TestScenario_VoidElements(t *testing.T) {
	out := parse(t, `<img src="x"/><br>`)
	require.Contains(t, out, `<img src="x"><br>`)
}

func TestShorthandEquivalence(t *testing.T) {
	require.Equal(t, parse(t, `<div #foo></div>`), parse(t, `<div id="foo"></div>`))
	require.Equal(t, parse(t, `<div .a.b></div>`), parse(t, `<div class="a b"></div>`))
}

func TestVoidElementStackEmptyAtEnd(t *testing.T) {
	var closed []string
	callbacks := xw.DefaultCallbacks()
	callbacks.OnClosingTag = func(output *strings.Builder, stack []string, tag string, user any) {
		closed = append(closed, tag)
		xw.DefaultCallbacks().OnClosingTag(output, stack, tag, user)
	}
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithCallbacks(callbacks)))
	_, err := c.Parse(`<img src="x">`)
	require.NoError(t, err)
	require.Empty(t, closed)
}

func TestTagStackDisciplineBalanced(t *testing.T) {
	var opened, closed []string
	callbacks := xw.DefaultCallbacks()
	def := xw.DefaultCallbacks()
	callbacks.OnOpeningTag = func(output *strings.Builder, stack []string, tag string, user any) {
		opened = append(opened, tag)
		def.OnOpeningTag(output, stack, tag, user)
	}
	callbacks.OnClosingTag = func(output *strings.Builder, stack []string, tag string, user any) {
		closed = append(closed, tag)
		def.OnClosingTag(output, stack, tag, user)
	}
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithCallbacks(callbacks)))
	_, err := c.Parse(`<div><p>hi</p><span>x</span></div>`)
	require.NoError(t, err)
	require.Equal(t, []string{"div", "p", "span"}, opened)
	require.Equal(t, []string{"p", "span", "div"}, closed)
}

func TestMismatchedClosingTagIgnored(t *testing.T) {
	out := parse(t, `<div><p>hi</div></p>`)
	require.Equal(t, `<div><p>hi</p></div>`, out)
}

func TestCommentsAreSkipped(t *testing.T) {
	out := parse(t, `<!-- hidden -->visible`)
	require.Equal(t, "visible", out)
}

func TestVanillaDisablesShorthandAndInline(t *testing.T) {
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithVanilla()))
	out, err := c.Parse(`<div #main>{{ x }}</div>`)
	require.NoError(t, err)
	require.Contains(t, out, "#main")
	require.Contains(t, out, "{{ x }}")
}

func TestCompactCollapsesWhitespace(t *testing.T) {
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithCompact()))
	out, err := c.Parse("a  b\n\tc")
	require.NoError(t, err)
	require.Equal(t, "a b c", out)
}

func TestHeadContentAlwaysCompacted(t *testing.T) {
	out := parse(t, "<head>a  b</head>")
	require.Contains(t, out, "<head>a b</head>")
}

func TestMalformedInlineExpressionEmittedVerbatim(t *testing.T) {
	out := parse(t, `a{{ unterminated`)
	require.Equal(t, `a{{ unterminated`, out)
}

func TestEscapedInlineBraces(t *testing.T) {
	out := parse(t, `a\{{ not an expr }}b`)
	require.Equal(t, `a{{ not an expr }}b`, out)
}

func TestSelfClosingNonVoidElement(t *testing.T) {
	out := parse(t, `<custom-tag/>after`)
	require.Contains(t, out, "after")
	require.Contains(t, out, "<custom-tag></custom-tag>after")
}

// Scenario 4: a #template header splices the document's body into the
// scope::template seam of the referenced file, carrying over <head>.
func TestScenario_TemplateSplice(t *testing.T) {
	fsys := fstest.MapFS{
		"doc.xw":  {Data: []byte("#template base.xw\n<body>hello</body>")},
		"base.xw": {Data: []byte(`<template::template></template::template><header>H</header>`)},
	}

	c := xw.NewContext(xw.NewOptions(xw.WithBuffer(), xw.WithFS(fsys)))
	entry, err := c.FromFile(context.Background(), fsys, "doc.xw", nil, true)
	require.NoError(t, err)
	require.Equal(t, "<body>hello</body>", entry.Content)
	require.NotNil(t, entry.Template)
	require.Equal(t, "<header>H</header>", entry.Template.Content)
	require.Equal(t, 0, entry.TemplateChunkSplit)

	out := c.ExportCopy(entry)
	require.Equal(t,
		"<!DOCTYPE html>\n\n<html lang=\"en\"><body>hello</body><header>H</header></html>",
		out)
}

// Scenario 5: a captured <ls::template id> block compiles to a JavaScript
// DOM-construction function, prefixed onto the output as a <script> block.
func TestScenario_LsTemplateCompile(t *testing.T) {
	c := xw.NewContext(xw.NewOptions(xw.WithBuffer()))
	out, err := c.Parse(`<ls::template #row><div>{{ x }}</div></ls::template>after`)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(out, "<script>\nfunction row(data){\n"),
		"unexpected script prefix: %q", out)
	require.True(t, strings.HasSuffix(out, "</script>\nafter"),
		"unexpected script suffix: %q", out)
}

// Package jscompile implements the secondary recursive-descent compiler that
// turns a captured <ls::template>…</ls::template> body into a JavaScript
// DOM-construction function, as described by the xw parser specification §4.6.
//
// Unlike the main byte-level state machine, this compiler does not emit
// callback events: it walks the captured bytes directly and accumulates a
// JavaScript source string.
package jscompile

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/titpetric/xw/internal/charclass"
	"github.com/titpetric/xw/internal/ulid"
)

// ExpressionError reports a {{ expr }} that failed to parse as a valid
// expr-lang expression while compiling an <ls::template> block. The original
// C++ source never validated these expressions; this is a deliberate
// hardening documented in SPEC_FULL.md §4.6.
type ExpressionError struct {
	Expr string
	Err  error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("xw: invalid expression %q in <ls::template>: %v", e.Expr, e.Err)
}

func (e *ExpressionError) Unwrap() error { return e.Err }

type exportEntry struct {
	name, varName string
}

// compiler holds per-compile state for one <ls::template> body.
type compiler struct {
	src   string
	pos   int
	varN  int
	js    strings.Builder
	stack []string // open element variable names, innermost last
	root  string   // variable name of the first top-level node
	exp   []exportEntry
}

// Compile turns body (the bytes captured between <ls::template id="..."> and
// </ls::template>) into a JavaScript function named name. If name has
// already been used within this compile batch (tracked via seen), the
// function is disambiguated with a short ULID suffix so two captured
// templates never redeclare the same top-level function.
//
// Compile returns the (possibly disambiguated) function name and its source.
func Compile(name string, body string, seen map[string]bool) (string, string, error) {
	c := &compiler{src: body}
	if err := c.run(); err != nil {
		return "", "", err
	}

	fnName := name
	if fnName == "" {
		fnName = "anonymous"
	}
	if seen[fnName] {
		fnName = fnName + "_" + strings.ToLower(ulid.String())
	}
	seen[fnName] = true

	var out strings.Builder
	fmt.Fprintf(&out, "function %s(data){\n", fnName)
	out.WriteString(c.js.String())
	out.WriteString("return { root: ")
	if c.root == "" {
		out.WriteString("null")
	} else {
		out.WriteString(c.root)
	}
	for _, ex := range c.exp {
		fmt.Fprintf(&out, ", %s: %s", ex.name, ex.varName)
	}
	out.WriteString(" };\n}\n")
	return fnName, out.String(), nil
}

func (c *compiler) nextVar() string {
	v := fmt.Sprintf("e%d", c.varN)
	c.varN++
	return v
}

// appendNode emits the JS that attaches varName under the current open
// element, or, if no element is open, records it as the root value.
func (c *compiler) appendNode(varName string) {
	if len(c.stack) > 0 {
		fmt.Fprintf(&c.js, "%s.appendChild(%s);\n", c.stack[len(c.stack)-1], varName)
		return
	}
	if c.root == "" {
		c.root = varName
	}
}

func (c *compiler) run() error {
	for c.pos < len(c.src) {
		if c.src[c.pos] == '<' {
			rest := c.src[c.pos:]
			if strings.HasPrefix(rest, "<!--") {
				c.skipComment()
				continue
			}
			if len(rest) > 1 && rest[1] == '/' {
				c.closeTag()
				continue
			}
			if err := c.openTag(); err != nil {
				return err
			}
			continue
		}
		if err := c.text(); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) skipComment() {
	end := strings.Index(c.src[c.pos:], "-->")
	if end < 0 {
		c.pos = len(c.src)
		return
	}
	c.pos += end + len("-->")
}

func (c *compiler) closeTag() {
	end := strings.IndexByte(c.src[c.pos:], '>')
	if end < 0 {
		c.pos = len(c.src)
		return
	}
	c.pos += end + 1
	if len(c.stack) > 0 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// openTag parses <tag attr attr="val" #id .class export="name"/> starting at
// c.pos (which must point at '<'), emits the createElement/setAttribute
// calls, and pushes the new element unless it self-closes or is void.
func (c *compiler) openTag() error {
	c.pos++ // consume '<'
	start := c.pos
	for c.pos < len(c.src) && !charclass.IsWhitespace(c.src[c.pos]) && c.src[c.pos] != '>' && c.src[c.pos] != '/' {
		c.pos++
	}
	tag := c.src[start:c.pos]
	if tag == "" {
		// malformed input, bail out of this tag defensively
		if c.pos < len(c.src) {
			c.pos++
		}
		return nil
	}

	varName := c.nextVar()
	fmt.Fprintf(&c.js, "var %s = document.createElement(%s);\n", varName, jsString(tag))

	var classes []string
	selfClose := false

attrs:
	for c.pos < len(c.src) {
		for c.pos < len(c.src) && charclass.IsWhitespace(c.src[c.pos]) {
			c.pos++
		}
		if c.pos >= len(c.src) {
			break
		}
		switch c.src[c.pos] {
		case '>':
			c.pos++
			break attrs
		case '/':
			selfClose = true
			c.pos++
			if c.pos < len(c.src) && c.src[c.pos] == '>' {
				c.pos++
			}
			break attrs
		}

		astart := c.pos
		for c.pos < len(c.src) && c.src[c.pos] != '=' && !charclass.IsWhitespace(c.src[c.pos]) && c.src[c.pos] != '>' && c.src[c.pos] != '/' {
			c.pos++
		}
		attrName := c.src[astart:c.pos]
		if attrName == "" {
			c.pos++
			continue
		}

		var attrVal string
		hasVal := false
		if c.pos < len(c.src) && c.src[c.pos] == '=' {
			c.pos++
			hasVal = true
			attrVal = c.readAttrValue()
		}

		switch {
		case strings.HasPrefix(attrName, "#"):
			fmt.Fprintf(&c.js, "%s.setAttribute(\"id\", %s);\n", varName, jsString(attrName[1:]))
		case strings.HasPrefix(attrName, "."):
			for _, part := range strings.Split(attrName[1:], ".") {
				if part != "" {
					classes = append(classes, part)
				}
			}
		case attrName == "class":
			if hasVal {
				classes = append(classes, strings.Fields(attrVal)...)
			}
		case attrName == "export":
			if hasVal && attrVal != "" {
				c.exp = append(c.exp, exportEntry{name: attrVal, varName: varName})
			}
		default:
			if hasVal {
				fmt.Fprintf(&c.js, "%s.setAttribute(%s, %s);\n", varName, jsString(attrName), jsString(attrVal))
			} else {
				fmt.Fprintf(&c.js, "%s.setAttribute(%s, \"\");\n", varName, jsString(attrName))
			}
		}
	}

	if len(classes) > 0 {
		fmt.Fprintf(&c.js, "%s.setAttribute(\"class\", %s);\n", varName, jsString(strings.Join(classes, " ")))
	}

	c.appendNode(varName)

	if !selfClose && !charclass.IsVoid(tag) {
		c.stack = append(c.stack, varName)
	}
	return nil
}

// readAttrValue reads a (possibly quoted) attribute value starting right
// after the '='.
func (c *compiler) readAttrValue() string {
	if c.pos >= len(c.src) {
		return ""
	}
	if c.src[c.pos] == '"' || c.src[c.pos] == '\'' {
		quote := c.src[c.pos]
		c.pos++
		start := c.pos
		for c.pos < len(c.src) && c.src[c.pos] != quote {
			c.pos++
		}
		val := c.src[start:c.pos]
		if c.pos < len(c.src) {
			c.pos++ // consume closing quote
		}
		return val
	}
	start := c.pos
	for c.pos < len(c.src) && !charclass.IsWhitespace(c.src[c.pos]) && c.src[c.pos] != '>' {
		c.pos++
	}
	return c.src[start:c.pos]
}

// text consumes a run of non-'<' bytes, splitting it on {{ expr }} and
// #{{ expr }} markers as described in SPEC_FULL.md §4.6.
func (c *compiler) text() error {
	var literal strings.Builder

	flush := func() {
		if literal.Len() == 0 {
			return
		}
		v := c.nextVar()
		fmt.Fprintf(&c.js, "var %s = document.createTextNode(%s);\n", v, jsString(literal.String()))
		c.appendNode(v)
		literal.Reset()
	}

	for c.pos < len(c.src) && c.src[c.pos] != '<' {
		if strings.HasPrefix(c.src[c.pos:], "{{") {
			hash := c.pos > 0 && c.src[c.pos-1] == '#'
			if hash {
				s := literal.String()
				literal.Reset()
				literal.WriteString(s[:len(s)-1])
			}
			flush()

			end := strings.Index(c.src[c.pos:], "}}")
			if end < 0 {
				// malformed: no closing }}, emit the rest verbatim as text
				literal.WriteString(c.src[c.pos:])
				c.pos = len(c.src)
				break
			}
			expr := strings.TrimSpace(c.src[c.pos+2 : c.pos+end])
			c.pos += end + 2

			if err := validateExpr(expr); err != nil {
				return err
			}

			if hash {
				v := c.nextVar()
				fmt.Fprintf(&c.js, "var %s = LS.__dynamicInnerToNode(%s);\n", v, normalizeExpr(expr))
				c.appendNode(v)
			} else {
				v := c.nextVar()
				fmt.Fprintf(&c.js, "var %s = document.createElement(\"span\");\n", v)
				c.appendNode(v)
				fmt.Fprintf(&c.js, "LS.Reactive.bindElement(%s, %s);\n", v, jsString(expr))
			}
			continue
		}
		literal.WriteByte(c.src[c.pos])
		c.pos++
	}
	flush()
	return nil
}

// normalizeExpr prefixes a bare identifier with "data." unless it already
// references data or is a call/member expression, per SPEC_FULL.md §4.6.
func normalizeExpr(e string) string {
	if strings.HasPrefix(e, "data.") || strings.ContainsAny(e, ".(") {
		return e
	}
	return "data." + e
}

func validateExpr(e string) error {
	if e == "" {
		return nil
	}
	if _, err := expr.Compile(e, expr.AllowUndefinedVariables()); err != nil {
		return &ExpressionError{Expr: e, Err: err}
	}
	return nil
}

// jsString renders s as a double-quoted JavaScript string literal, escaping
// the characters the spec calls out: backslash, double quote, newline,
// carriage return, tab.
func jsString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Package charclass holds the byte-class tables and predicates the xw
// parser consults while tokenising: the void- and raw-element name sets,
// and the whitespace predicate.
package charclass

// voidElements never carry a closing tag and are never pushed onto the tag stack.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "command": true, "frame": true,
	"param": true, "wbr": true,
}

// rawElements pass their body through opaquely until the matching closing tag.
var rawElements = map[string]bool{
	"script": true, "style": true, "xmp": true, "textarea": true, "title": true,
}

// IsVoid reports whether tag is a void element. The match is case-sensitive
// and the state machine passes tag names through as written, so only
// lower-case names match.
func IsVoid(tag string) bool {
	return voidElements[tag]
}

// IsRaw reports whether tag is a raw element.
func IsRaw(tag string) bool {
	return rawElements[tag]
}

// IsWhitespace reports whether b is an ASCII whitespace byte recognised by the
// state machine (space, tab, newline, carriage return).
func IsWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

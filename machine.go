package xw

import (
	"strings"

	"github.com/titpetric/xw/internal/charclass"
	"github.com/titpetric/xw/internal/jscompile"
)

// resume drives the state machine over c.input[c.it:c.chunkEnd]. Each state
// gets its own scan function that consumes as many bytes as it needs and
// leaves c.it positioned at the start of the next token; this is the
// "larger explicit-state machine, same observable behaviour" refactor
// SPEC_FULL.md §9 permits over a literal single-byte dispatch loop.
func (c *Context) resume() {
	for c.it < c.chunkEnd && c.err == nil {
		switch c.state {
		case stateText:
			c.scanText()
		case stateTagName:
			c.scanTagName()
		case stateAttribute:
			c.scanAttribute()
		case stateAttributeValue:
			c.scanAttributeValue()
		case stateComment:
			c.scanComment()
		case stateInlineValue:
			c.scanInlineValue()
		case stateRawElement:
			c.scanRawElement()
		case stateTemplatePath:
			c.scanTemplatePath()
		}
	}
}

// --- Text ---

func (c *Context) scanText() {
	start := c.it
	for c.it < c.chunkEnd {
		b := c.input[c.it]
		if b == '<' {
			if strings.HasPrefix(c.input[c.it:], "<!--") {
				c.emitText(c.input[start:c.it])
				c.it += 4
				c.state = stateComment
				return
			}
			c.emitText(c.input[start:c.it])
			c.it++
			c.endTagFlag = false
			c.isTemplateScope = false
			c.templateScope = ""
			if c.it < c.chunkEnd && c.input[c.it] == '/' {
				c.endTagFlag = true
				c.it++
			}
			c.valueStart = c.it
			c.state = stateTagName
			return
		}
		if !c.opts.Vanilla && b == '{' && c.it+1 < c.chunkEnd && c.input[c.it+1] == '{' {
			escaped := c.it > 0 && c.input[c.it-1] == '\\'
			if !escaped {
				c.emitText(c.input[start:c.it])
				c.inlineStart = c.it
				c.it += 2
				c.valueStart = c.it
				c.spaceBroken = false
				c.state = stateInlineValue
				return
			}
		}
		c.it++
	}
	c.emitText(c.input[start:c.it])
}

// --- TagName ---

func (c *Context) scanTagName() {
	for c.it < c.chunkEnd {
		b := c.input[c.it]
		if !c.endTagFlag && !c.isTemplateScope && !c.opts.Vanilla &&
			b == ':' && c.it+1 < c.chunkEnd && c.input[c.it+1] == ':' {
			c.templateScope = c.input[c.valueStart:c.it]
			c.isTemplateScope = true
			c.it += 2
			c.valueStart = c.it
			continue
		}
		if b == '>' || b == '/' || charclass.IsWhitespace(b) {
			name := c.input[c.valueStart:c.it]
			c.finishTagName(name, b, true)
			return
		}
		c.it++
	}
	name := c.input[c.valueStart:c.it]
	c.finishTagName(name, 0, false)
}

func (c *Context) finishTagName(name string, terminator byte, hasTerminator bool) {
	if c.endTagFlag {
		c.finishClosingTag(name, terminator, hasTerminator)
		return
	}

	lsTemplate := c.isTemplateScope && c.templateScope == "ls" && name == "template"
	c.renderElement = !c.isTemplateScope && name != "html" && name != "!DOCTYPE"

	if c.renderElement && c.opts.Callbacks.OnOpeningTag != nil {
		c.opts.Callbacks.OnOpeningTag(c.output, c.tagStack, name, c.user)
	}
	if c.renderElement && name == "body" && c.bodyAttributes != "" {
		if c.output != nil {
			c.output.WriteString(c.bodyAttributes)
		}
		c.bodyAttributes = ""
	}

	switch {
	case !hasTerminator:
		c.completeOpeningTag(name, lsTemplate, false)
	case terminator == '>':
		c.it++
		c.completeOpeningTag(name, lsTemplate, false)
	case terminator == '/':
		c.it++
		if c.it < c.chunkEnd && c.input[c.it] == '>' {
			c.it++
		}
		c.completeOpeningTag(name, lsTemplate, true)
	default: // whitespace
		c.it++
		c.isRaw = !lsTemplate && c.renderElement && charclass.IsRaw(name)
		c.valueStart = c.it
		c.spaceBroken = false
		c.curTag = name
		c.curTagIsLsTemplate = lsTemplate
		c.state = stateAttribute
	}
}

func (c *Context) finishClosingTag(name string, terminator byte, hasTerminator bool) {
	switch {
	case !hasTerminator:
		// ran off the chunk with no '>': tolerant, nothing more to consume.
	case terminator == '>':
		c.it++
	default:
		idx := strings.IndexByte(c.input[c.it:], '>')
		if idx < 0 {
			c.it = c.chunkEnd
		} else {
			c.it += idx + 1
		}
	}

	if len(c.tagStack) > 0 && c.tagStack[len(c.tagStack)-1] == name {
		if c.opts.Callbacks.OnClosingTag != nil {
			c.opts.Callbacks.OnClosingTag(c.output, c.tagStack, name, c.user)
		}
		c.tagStack = c.tagStack[:len(c.tagStack)-1]
	}
	// mismatched closing tags are silently ignored (tolerant parsing, §7).

	if name == "head" {
		c.insideHead = false
	}
	c.state = stateText
}

// completeOpeningTag runs once an opening tag's '>' (or self-closing '/>')
// has been consumed, regardless of whether it arrived directly from
// TagName or via Attribute/AttributeValue.
func (c *Context) completeOpeningTag(name string, lsTemplate bool, selfClose bool) {
	c.isRaw = !selfClose && !lsTemplate && c.renderElement && charclass.IsRaw(name)
	c.curTag = name
	c.curTagIsLsTemplate = lsTemplate
	c.endTag()
	c.afterOpenTag(name, selfClose)
}

// endTag is the _endTag action (SPEC_FULL.md §4.3): decide the next state,
// arm <ls::template> capture, record the scope::template split point or
// emit a "#template <scope>" line for other scope::tag directives, or flush
// the accumulated class buffer and close the '>' of a normal element.
func (c *Context) endTag() {
	if c.isRaw {
		c.state = stateRawElement
	} else {
		c.state = stateText
	}

	if c.curTagIsLsTemplate {
		c.lsCapturing = true
		c.lsCaptureStart = c.it
		c.valueStart = c.it
		c.isTemplateScope = false
		c.templateScope = ""
		c.state = stateRawElement
		return
	}

	if c.isTemplateScope {
		// scope::template with a bound cache entry marks the splice seam in a
		// template file's own content; any other scope::xxx tag (or
		// scope::template outside a file parse) is written out as a literal
		// "#template <scope>" line. Template-scope tags are never rendered as
		// elements.
		if c.templateScope == "template" && c.cacheEntry != nil {
			c.cacheEntry.TemplateChunkSplit = c.outputLen()
		} else if c.output != nil {
			c.output.WriteString(templateHeaderPrefix)
			c.output.WriteString(c.templateScope)
			c.output.WriteByte('\n')
		}
		c.isTemplateScope = false
		c.templateScope = ""
		return
	}

	if c.renderElement && c.opts.Buffer {
		if c.classBuffer.Len() > 0 {
			if c.output != nil {
				c.output.WriteString(` class="`)
				c.output.WriteString(c.classBuffer.String())
				c.output.WriteByte('"')
			}
			c.classBuffer.Reset()
		}
		if c.output != nil {
			c.output.WriteByte('>')
		}
	}
}

// afterOpenTag implements the "push onto tag_stack... enter RawElement"
// bullet of §4.2, plus the self-closing immediate-pop rule.
func (c *Context) afterOpenTag(name string, selfClose bool) {
	if !c.renderElement || charclass.IsVoid(name) {
		return
	}
	c.tagStack = append(c.tagStack, name)
	if name == "head" {
		c.insideHead = true
	}
	if selfClose {
		if c.opts.Callbacks.OnClosingTag != nil {
			c.opts.Callbacks.OnClosingTag(c.output, c.tagStack, name, c.user)
		}
		c.tagStack = c.tagStack[:len(c.tagStack)-1]
		return
	}
	if c.isRaw {
		c.rawTagName = name
	}
}

// --- Attribute ---

func (c *Context) scanAttribute() {
	if !c.renderElement && !c.curTagIsLsTemplate {
		idx := strings.IndexByte(c.input[c.it:], '>')
		if idx < 0 {
			c.it = c.chunkEnd
			return
		}
		c.it += idx + 1
		c.endTag()
		c.afterOpenTag(c.curTag, false)
		return
	}

	for c.it < c.chunkEnd {
		b := c.input[c.it]

		if charclass.IsWhitespace(b) {
			if c.spaceBroken {
				c.finishAttributeToken(c.input[c.valueStart:c.it])
				c.flagAppendToClass = false
			}
			c.spaceBroken = false
			c.it++
			c.valueStart = c.it
			continue
		}
		if !c.spaceBroken {
			c.spaceBroken = true
			c.valueStart = c.it
		}

		if !c.opts.Vanilla && b == '{' && c.it+1 < c.chunkEnd && c.input[c.it+1] == '{' {
			if c.it > c.valueStart {
				c.finishAttributeToken(c.input[c.valueStart:c.it])
			}
			c.scanAttributeInline()
			c.spaceBroken = false
			continue
		}

		switch b {
		case '=':
			c.finishAttributeToken(c.input[c.valueStart:c.it])
			c.it++
			c.valueStart = c.it
			c.stringChar = 0
			c.spaceBroken = false
			c.state = stateAttributeValue
			return
		case '>':
			if c.it > c.valueStart {
				c.finishAttributeToken(c.input[c.valueStart:c.it])
			}
			c.it++
			c.endTag()
			c.afterOpenTag(c.curTag, false)
			return
		case '/':
			if c.it > c.valueStart {
				c.finishAttributeToken(c.input[c.valueStart:c.it])
			}
			c.it++
			if c.it < c.chunkEnd && c.input[c.it] == '>' {
				c.it++
			}
			c.isRaw = false
			c.endTag()
			c.afterOpenTag(c.curTag, true)
			return
		}
		c.it++
	}
	if c.it > c.valueStart {
		c.finishAttributeToken(c.input[c.valueStart:c.it])
	}
}

// scanAttributeInline handles a bare {{ expr }} appearing where an attribute
// name/value was expected, emitted as a data-reactive attribute (§4.2).
func (c *Context) scanAttributeInline() {
	start := c.it + 2
	end := strings.Index(c.input[start:c.chunkEnd], "}}")
	if end < 0 {
		expr := strings.TrimSpace(c.input[start:c.chunkEnd])
		c.writeDataReactive(expr)
		c.it = c.chunkEnd
		return
	}
	exprEnd := start + end
	expr := strings.TrimSpace(c.input[start:exprEnd])
	c.writeDataReactive(expr)
	c.it = exprEnd + 2
	c.valueStart = c.it
}

func (c *Context) writeDataReactive(expr string) {
	if c.output != nil && c.opts.Buffer {
		c.output.WriteString(` data-reactive="`)
		c.output.WriteString(expr)
		c.output.WriteByte('"')
	}
}

// finishAttributeToken processes one completed bare attribute-name token:
// #id / .class shorthand, the "class" literal (arms flag_appendToClass),
// <ls::template> id capture, or a plain boolean attribute name.
func (c *Context) finishAttributeToken(token string) {
	if token == "" {
		return
	}
	if c.curTagIsLsTemplate {
		switch {
		case token == "id":
			c.lsWantCaptureID = true
		case strings.HasPrefix(token, "#"):
			c.lsCaptureID = token[1:]
		}
		return
	}

	switch {
	case !c.opts.Vanilla && strings.HasPrefix(token, "#"):
		if c.output != nil && c.opts.Buffer {
			c.output.WriteString(` id="`)
			c.output.WriteString(token[1:])
			c.output.WriteByte('"')
		}
	case !c.opts.Vanilla && strings.HasPrefix(token, "."):
		for _, part := range strings.Split(token[1:], ".") {
			if part == "" {
				continue
			}
			if c.classBuffer.Len() > 0 {
				c.classBuffer.WriteByte(' ')
			}
			c.classBuffer.WriteString(part)
		}
	case token == "class":
		c.flagAppendToClass = true
	default:
		if c.output != nil && c.opts.Buffer {
			c.output.WriteByte(' ')
			c.output.WriteString(token)
		}
	}
}

// --- AttributeValue ---

func (c *Context) scanAttributeValue() {
	if c.stringChar == 0 && c.it < c.chunkEnd && (c.input[c.it] == '"' || c.input[c.it] == '\'') {
		c.stringChar = c.input[c.it]
		c.it++
		c.valueStart = c.it
	}

	for c.it < c.chunkEnd {
		b := c.input[c.it]

		if c.stringChar != 0 {
			if b == c.stringChar {
				value := c.input[c.valueStart:c.it]
				c.it++
				c.stringChar = 0
				c.finishAttributeValue(value)
				c.valueStart = c.it
				c.spaceBroken = false
				c.state = stateAttribute
				return
			}
			c.it++
			continue
		}

		if b == '>' {
			value := c.input[c.valueStart:c.it]
			c.finishAttributeValue(value)
			c.it++
			c.endTag()
			c.afterOpenTag(c.curTag, false)
			return
		}
		if charclass.IsWhitespace(b) {
			value := c.input[c.valueStart:c.it]
			c.finishAttributeValue(value)
			c.it++
			c.valueStart = c.it
			c.spaceBroken = false
			c.state = stateAttribute
			return
		}
		c.it++
	}
	if c.stringChar == 0 && c.it > c.valueStart {
		value := c.input[c.valueStart:c.it]
		c.finishAttributeValue(value)
	}
}

func (c *Context) finishAttributeValue(value string) {
	if c.curTagIsLsTemplate {
		if c.lsWantCaptureID {
			c.lsCaptureID = value
			c.lsWantCaptureID = false
		}
		return
	}
	if value == "" {
		c.flagAppendToClass = false
		return
	}
	if c.flagAppendToClass {
		if c.classBuffer.Len() > 0 {
			c.classBuffer.WriteByte(' ')
		}
		c.classBuffer.WriteString(value)
		c.flagAppendToClass = false
		return
	}
	if c.output == nil || !c.opts.Buffer {
		return
	}
	quote := byte('"')
	if strings.Contains(value, `"`) {
		quote = '\''
	}
	c.output.WriteByte('=')
	c.output.WriteByte(quote)
	c.output.WriteString(value)
	c.output.WriteByte(quote)
}

// --- Comment ---

func (c *Context) scanComment() {
	idx := strings.Index(c.input[c.it:c.chunkEnd], "-->")
	if idx < 0 {
		c.it = c.chunkEnd
		return
	}
	c.it += idx + 3
	c.state = stateText
}

// --- InlineValue ---

func (c *Context) scanInlineValue() {
	for !c.spaceBroken && c.it < c.chunkEnd {
		if charclass.IsWhitespace(c.input[c.it]) {
			c.it++
			continue
		}
		c.spaceBroken = true
		c.valueStart = c.it
	}
	if !c.spaceBroken {
		// ran off the chunk still skipping leading whitespace inside {{ }}.
		return
	}

	idx := strings.Index(c.input[c.it:c.chunkEnd], "}}")
	if idx < 0 {
		// malformed: no closing }} before EOF — emit the opening "{{" and
		// everything since, verbatim, as text (§7).
		c.emitText(c.input[c.inlineStart:c.chunkEnd])
		c.it = c.chunkEnd
		c.spaceBroken = false
		c.state = stateText
		return
	}
	exprEnd := c.it + idx
	expr := strings.TrimRight(c.input[c.valueStart:exprEnd], " \t\r\n")
	if c.opts.Callbacks.OnInline != nil {
		c.opts.Callbacks.OnInline(c.output, c.tagStack, expr, c.user)
	}
	c.it = exprEnd + 2
	c.valueStart = c.it
	c.spaceBroken = false
	c.state = stateText
}

// --- RawElement ---

func (c *Context) scanRawElement() {
	if c.lsCapturing {
		c.scanLsTemplateCapture()
		return
	}
	c.scanRawElementBody()
}

// scanRawElementBody implements raw-element opacity: everything up to the
// literal "</TopTag" marker is emitted verbatim as text, with no nested
// tag/comment/inline parsing.
func (c *Context) scanRawElementBody() {
	marker := "</" + c.rawTagName
	idx := strings.Index(c.input[c.it:c.chunkEnd], marker)

	var textEnd, after int
	if idx < 0 {
		textEnd = c.chunkEnd
		after = c.chunkEnd
	} else {
		textEnd = c.it + idx
		gt := strings.IndexByte(c.input[textEnd:c.chunkEnd], '>')
		if gt < 0 {
			after = c.chunkEnd
		} else {
			after = textEnd + gt + 1
		}
	}

	if c.opts.Callbacks.OnText != nil {
		c.opts.Callbacks.OnText(c.output, c.tagStack, c.input[c.it:textEnd], c.user)
	}

	if idx < 0 {
		c.it = c.chunkEnd
		return
	}

	c.it = after
	tag := c.rawTagName
	if len(c.tagStack) > 0 && c.tagStack[len(c.tagStack)-1] == tag {
		if c.opts.Callbacks.OnClosingTag != nil {
			c.opts.Callbacks.OnClosingTag(c.output, c.tagStack, tag, c.user)
		}
		c.tagStack = c.tagStack[:len(c.tagStack)-1]
	}
	c.rawTagName = ""
	c.state = stateText
}

// scanLsTemplateCapture scans for the literal "</ls::template>" terminator
// and hands the captured body to the JS sub-compiler (§4.6).
func (c *Context) scanLsTemplateCapture() {
	const marker = "</ls::template>"
	idx := strings.Index(c.input[c.it:c.chunkEnd], marker)
	if idx < 0 {
		body := c.input[c.lsCaptureStart:c.chunkEnd]
		c.finishLsTemplateCapture(body)
		c.it = c.chunkEnd
		return
	}
	bodyEnd := c.it + idx
	body := c.input[c.lsCaptureStart:bodyEnd]
	c.it = bodyEnd + len(marker)
	c.finishLsTemplateCapture(body)
}

func (c *Context) finishLsTemplateCapture(body string) {
	_, src, err := jscompile.Compile(c.lsCaptureID, body, c.js.seenNames)
	if err != nil {
		c.err = err
	} else {
		c.js.source.WriteString(src)
	}
	c.lsCapturing = false
	c.lsCaptureID = ""
	c.lsWantCaptureID = false
	c.state = stateText
}

// --- TemplatePath ---

func (c *Context) scanTemplatePath() {
	for c.it < c.chunkEnd {
		b := c.input[c.it]
		if b == '\n' || b == '\r' {
			path := c.input[c.valueStart:c.it]
			c.it++
			c.valueStart = c.it
			c.state = stateText
			c.resolveTemplate(path)
			return
		}
		c.it++
	}
	// ran off the chunk without a newline: malformed header, tolerated.
	c.state = stateText
}

package xw

// state is the parser's 8-state byte-level machine, per SPEC_FULL.md §3/§4.2.
type state int

const (
	stateText state = iota
	stateTagName
	stateAttribute
	stateAttributeValue
	stateComment
	stateInlineValue
	stateRawElement
	stateTemplatePath
)

func (s state) String() string {
	switch s {
	case stateText:
		return "Text"
	case stateTagName:
		return "TagName"
	case stateAttribute:
		return "Attribute"
	case stateAttributeValue:
		return "AttributeValue"
	case stateComment:
		return "Comment"
	case stateInlineValue:
		return "InlineValue"
	case stateRawElement:
		return "RawElement"
	case stateTemplatePath:
		return "TemplatePath"
	default:
		return "Unknown"
	}
}

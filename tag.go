// tag.go — the Packard tag tree and runtime values.
//
// A Packard Script program is made of tags: [left : right]. The parser
// (parser.go) builds an immutable tree of TagNode out of the token
// stream; the evaluator (eval.go) walks it and produces Values. A node
// is either a Primitive leaf or a Composite owning exactly two
// children. Ownership is strict: children are never shared and the
// tree is never mutated after parsing.
package packard

import (
	"fmt"
	"strconv"
)

// PrimKind discriminates the four primitive leaf kinds.
type PrimKind int

const (
	PrimIdentifier PrimKind = iota // bare name
	PrimNumber                     // float64 literal
	PrimString                     // quoted literal, decoded
	PrimKeyword                    // reserved word (on, off, ...)
)

// Primitive is a terminal tag holding a literal value or name.
// Num is valid only for PrimNumber; Text holds the payload otherwise.
type Primitive struct {
	Kind PrimKind
	Num  float64
	Text string
}

func IdentPrim(name string) Primitive { return Primitive{Kind: PrimIdentifier, Text: name} }
func NumberPrim(n float64) Primitive  { return Primitive{Kind: PrimNumber, Num: n} }
func StringPrim(s string) Primitive   { return Primitive{Kind: PrimString, Text: s} }
func KeywordPrim(kw string) Primitive { return Primitive{Kind: PrimKeyword, Text: kw} }

// TextForm returns the textual form of the primitive (identifier,
// string or keyword text). Numbers have no text form.
func (p Primitive) TextForm() (string, bool) {
	if p.Kind == PrimNumber {
		return "", false
	}
	return p.Text, true
}

// DisplayString renders the primitive the way the trace and the
// pretty-printer show it: strings quoted, integral numbers without a
// fractional part.
func (p Primitive) DisplayString() string {
	switch p.Kind {
	case PrimNumber:
		return formatNumber(p.Num)
	case PrimString:
		return fmt.Sprintf("%q", p.Text)
	default:
		return p.Text
	}
}

// Value converts the primitive to its runtime value: identifiers and
// strings become Text, numbers become Number, and keywords map on→Flag
// (true), off→Flag(false), item→Item, anything else→Text of the
// keyword itself. Keywords double as literal values and operation
// names; which one a keyword means is decided by its position in the
// tree, not its value.
func (p Primitive) Value() Value {
	switch p.Kind {
	case PrimNumber:
		return Number(p.Num)
	case PrimKeyword:
		switch p.Text {
		case "on":
			return Flag(true)
		case "off":
			return Flag(false)
		case "item":
			return Item
		}
		return Text(p.Text)
	default:
		return Text(p.Text)
	}
}

// TagNode is one node of a tag tree. Exactly one representation is
// active: Prim != nil for a leaf, or Left/Right != nil for a
// composite.
type TagNode struct {
	Prim  *Primitive
	Left  *TagNode
	Right *TagNode
}

func PrimNode(p Primitive) *TagNode { return &TagNode{Prim: &p} }

func CompositeNode(left, right *TagNode) *TagNode {
	return &TagNode{Left: left, Right: right}
}

func (n *TagNode) IsPrimitive() bool { return n.Prim != nil }

// String renders the node on a single line: [left: right].
func (n *TagNode) String() string {
	if n.IsPrimitive() {
		return n.Prim.DisplayString()
	}
	return "[" + n.Left.String() + ": " + n.Right.String() + "]"
}

// ValueTag enumerates the runtime value kinds.
type ValueTag int

const (
	VTNumber ValueTag = iota // float64
	VTText                   // string
	VTFlag                   // bool
	VTItem                   // unit/placeholder, no payload
	VTRef                    // string: a slot name, resolved by frame search
)

// Value is the runtime carrier produced by evaluation. The tag
// determines which case of Data is valid (float64, string or bool;
// VTItem carries nothing). Values are small and freely copied.
type Value struct {
	Tag  ValueTag
	Data interface{}
}

// Item is the singleton unit value.
var Item = Value{Tag: VTItem}

func Number(n float64) Value { return Value{Tag: VTNumber, Data: n} }
func Text(s string) Value    { return Value{Tag: VTText, Data: s} }
func Flag(b bool) Value      { return Value{Tag: VTFlag, Data: b} }

// Ref names a variable/attribute slot in some active frame. It is a
// symbolic handle: assignment resolves the name by searching the frame
// stack at use time, not a pointer to the slot.
func Ref(name string) Value { return Value{Tag: VTRef, Data: name} }

// String renders the value: integral numbers without a fractional
// part, text quoted, flags as on/off, references as &name.
func (v Value) String() string {
	switch v.Tag {
	case VTNumber:
		return formatNumber(v.Data.(float64))
	case VTText:
		return fmt.Sprintf("%q", v.Data.(string))
	case VTFlag:
		if v.Data.(bool) {
			return "on"
		}
		return "off"
	case VTItem:
		return "item"
	case VTRef:
		return "&" + v.Data.(string)
	default:
		return "<unknown>"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

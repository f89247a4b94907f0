// parser.go — streaming tag parser for Packard Script.
//
// OVERVIEW
// --------
// The grammar is uniform and operator-free:
//
//	Tag       := '[' Part ':' Part ']'
//	Part      := Primitive | Tag
//	Primitive := Identifier | Number | String | Keyword
//
// Commas are optional separators and are skipped wherever they appear
// between tokens inside a tag.
//
// The parser keeps an explicit stack of in-progress tags. '[' pushes a
// frame awaiting its left part; ':' flips the frame to its right part;
// primitives and completed nested tags drop into the active slot
// (filling an occupied slot is an error); ']' pops and requires both
// slots filled. Reaching end of input with frames still open reports
// the current nesting depth.
//
// Top-level normalization: a source file holds zero or more tags, and
// the parser always hands the evaluator exactly one tree:
//
//	zero tags   →  [root: [list: item]]
//	one tag t   →  [root: [list: t]]
//	many tags   →  [root: [list: [t1: [t2: ... tn]]]]
//
// The many-tag chain is right-nested with the last tag as the final
// right-hand leaf; there is no trailing sentinel.
//
// Every *ParseError carries the failure position (line, column, byte
// offset), the nesting depth, and — when a tag was in progress — which
// of its slots were filled at the time.
package packard

import "fmt"

// ParseError is a tag-grammar failure with source and nesting context.
type ParseError struct {
	Msg   string
	Line  int
	Col   int
	Byte  int
	Depth int // open tag frames at the time of failure

	// Slot context of the innermost in-progress tag, valid when InTag.
	InTag       bool
	LeftFilled  bool
	RightFilled bool
}

func (e *ParseError) Error() string {
	s := fmt.Sprintf("parse error at %d:%d (byte %d): %s (depth %d", e.Line, e.Col, e.Byte, e.Msg, e.Depth)
	if e.InTag {
		s += fmt.Sprintf("; left %s, right %s", slotState(e.LeftFilled), slotState(e.RightFilled))
	}
	return s + ")"
}

func slotState(filled bool) string {
	if filled {
		return "filled"
	}
	return "empty"
}

type parseState int

const (
	awaitingLeft parseState = iota
	awaitingRight
)

// tagInProgress is one stack frame: a tag whose parts are still being
// collected. open is the '[' token that started it.
type tagInProgress struct {
	state parseState
	left  *TagNode
	right *TagNode
	open  Token
}

func (t *tagInProgress) complete() bool { return t.left != nil && t.right != nil }

// StreamingParser consumes a token stream and produces one tag tree.
type StreamingParser struct {
	toks  []Token
	i     int
	stack []*tagInProgress
}

func NewStreamingParser(toks []Token) *StreamingParser {
	return &StreamingParser{toks: toks}
}

// ParseTags parses a full token stream into the normalized root tree.
func ParseTags(toks []Token) (*TagNode, error) {
	return NewStreamingParser(toks).Parse()
}

// ParseSource lexes and parses a Packard source string.
func ParseSource(src string) (*TagNode, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	return ParseTags(toks)
}

// Parse collects every top-level tag and wraps them under
// [root: [list: ...]].
func (p *StreamingParser) Parse() (*TagNode, error) {
	var tags []*TagNode
	for p.peek().Type != EOF {
		tag, err := p.parseOneTag()
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return createRoot(tags), nil
}

func createRoot(tags []*TagNode) *TagNode {
	return CompositeNode(PrimNode(KeywordPrim("root")), createListNode(tags))
}

// createListNode normalizes zero or more top-level tags into a single
// [list: ...] node. The empty program gets the item keyword as a
// placeholder; multiple tags right-nest so each tag but the last is
// the left side of a composite holding the rest.
func createListNode(tags []*TagNode) *TagNode {
	listKw := PrimNode(KeywordPrim("list"))
	switch len(tags) {
	case 0:
		return CompositeNode(listKw, PrimNode(KeywordPrim("item")))
	case 1:
		return CompositeNode(listKw, tags[0])
	}
	chain := tags[len(tags)-1]
	for i := len(tags) - 2; i >= 0; i-- {
		chain = CompositeNode(tags[i], chain)
	}
	return CompositeNode(listKw, chain)
}

func (p *StreamingParser) peek() Token {
	if p.i >= len(p.toks) {
		if len(p.toks) == 0 {
			return Token{Type: EOF, Line: 1, Col: 1}
		}
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *StreamingParser) advance() { p.i++ }

func (p *StreamingParser) current() *tagInProgress {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// errAt builds a ParseError at the given token, attaching the nesting
// depth and the innermost frame's slot state.
func (p *StreamingParser) errAt(tok Token, msg string) *ParseError {
	e := &ParseError{
		Msg:   msg,
		Line:  tok.Line,
		Col:   tok.Col,
		Byte:  tok.Byte,
		Depth: len(p.stack),
	}
	if fr := p.current(); fr != nil {
		e.InTag = true
		e.LeftFilled = fr.left != nil
		e.RightFilled = fr.right != nil
	}
	return e
}

// store drops a finished part into the active slot of the innermost
// frame. The slot must be empty.
func (p *StreamingParser) store(node *TagNode, at Token) error {
	fr := p.current()
	if fr.state == awaitingLeft {
		if fr.left != nil {
			return p.errAt(at, "left slot already filled")
		}
		fr.left = node
		return nil
	}
	if fr.right != nil {
		return p.errAt(at, "right slot already filled")
	}
	fr.right = node
	return nil
}

func (p *StreamingParser) parseOneTag() (*TagNode, error) {
	open := p.peek()
	if open.Type != LBRACKET {
		return nil, p.errAt(open, fmt.Sprintf("expected '[', got %q", open.String()))
	}
	p.advance()
	p.stack = append(p.stack, &tagInProgress{open: open})

	for {
		tok := p.peek()
		switch tok.Type {
		case LBRACKET:
			nested, err := p.parseOneTag()
			if err != nil {
				return nil, err
			}
			if err := p.store(nested, tok); err != nil {
				return nil, err
			}

		case RBRACKET:
			fr := p.current()
			if !fr.complete() {
				return nil, p.errAt(tok, "incomplete tag")
			}
			p.advance()
			p.stack = p.stack[:len(p.stack)-1]
			return CompositeNode(fr.left, fr.right), nil

		case COLON:
			fr := p.current()
			if fr.left == nil {
				return nil, p.errAt(tok, "':' with empty left slot")
			}
			p.advance()
			fr.state = awaitingRight

		case COMMA:
			p.advance()

		case IDENT:
			p.advance()
			if err := p.store(PrimNode(IdentPrim(tok.Text)), tok); err != nil {
				return nil, err
			}
		case NUMBER:
			p.advance()
			if err := p.store(PrimNode(NumberPrim(tok.Num)), tok); err != nil {
				return nil, err
			}
		case STRING:
			p.advance()
			if err := p.store(PrimNode(StringPrim(tok.Text)), tok); err != nil {
				return nil, err
			}
		case KEYWORD:
			p.advance()
			if err := p.store(PrimNode(KeywordPrim(tok.Text)), tok); err != nil {
				return nil, err
			}

		case EOF:
			return nil, p.errAt(tok, "unexpected end of input")

		default:
			return nil, p.errAt(tok, fmt.Sprintf("unexpected token %q", tok.String()))
		}
	}
}

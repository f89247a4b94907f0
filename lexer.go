// lexer.go — scanner for Packard Script source.
package packard

import (
	"fmt"
	"strconv"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota

	// Punctuation
	LBRACKET // "["
	RBRACKET // "]"
	COLON    // ":"
	COMMA    // ","

	// Operators. The lexer recognizes these so the parser can report
	// them with positions; the tag grammar itself accepts none of them.
	PLUS
	MINUS
	STAR
	SLASH
	ASSIGN // "="
	NEQ    // "!="
	GT
	LT
	GTEQ
	LTEQ
	ARROW // "->"

	// Literals & identifiers
	IDENT
	NUMBER
	STRING
	KEYWORD
)

// Token is a lexical token with its decoded literal and source
// position. Line and Col are 1-based; Byte is the byte offset of the
// token's first character.
type Token struct {
	Type TokenType
	Text string  // identifier/keyword name or decoded string literal
	Num  float64 // valid for NUMBER
	Line int
	Col  int
	Byte int
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "EOF"
	case IDENT, KEYWORD:
		return t.Text
	case STRING:
		return fmt.Sprintf("%q", t.Text)
	case NUMBER:
		return formatNumber(t.Num)
	default:
		return tokenTypeText[t.Type]
	}
}

var tokenTypeText = map[TokenType]string{
	LBRACKET: "[", RBRACKET: "]", COLON: ":", COMMA: ",",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", ASSIGN: "=",
	NEQ: "!=", GT: ">", LT: "<", GTEQ: ">=", LTEQ: "<=", ARROW: "->",
}

// keywords map: words that lex as KEYWORD rather than IDENT.
var keywords = map[string]bool{
	"on":   true,
	"off":  true,
	"item": true,
	"and":  true,
	"or":   true,
	"not":  true,
}

// Lexer scans a Packard source string into tokens.
type Lexer struct {
	src    string
	cur    int // current index
	line   int // 1-based
	col    int // 1-based column within line
	tokens []Token

	// position of the token being scanned
	tokStartLine int
	tokStartCol  int
	tokStartByte int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Scan tokenizes the whole source. The returned slice always ends with
// an EOF token carrying the end-of-source position.
func (l *Lexer) Scan() ([]Token, error) {
	for {
		l.skipWhitespace()
		l.markStart()
		if l.isAtEnd() {
			l.add(Token{Type: EOF})
			return l.tokens, nil
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) markStart() {
	l.tokStartLine = l.line
	l.tokStartCol = l.col
	l.tokStartByte = l.cur
}

func (l *Lexer) add(tok Token) {
	tok.Line = l.tokStartLine
	tok.Col = l.tokStartCol
	tok.Byte = l.tokStartByte
	l.tokens = append(l.tokens, tok)
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch ch {
		case ' ', '\r', '\n', '\t':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) scanToken() error {
	ch, _ := l.peek()
	switch ch {
	case '[':
		l.advance()
		l.add(Token{Type: LBRACKET})
	case ']':
		l.advance()
		l.add(Token{Type: RBRACKET})
	case ':':
		l.advance()
		l.add(Token{Type: COLON})
	case ',':
		l.advance()
		l.add(Token{Type: COMMA})
	case '+':
		l.advance()
		l.add(Token{Type: PLUS})
	case '*':
		l.advance()
		l.add(Token{Type: STAR})
	case '=':
		l.advance()
		l.add(Token{Type: ASSIGN})
	case '-':
		if nx, ok := l.peekN(1); ok && nx == '>' {
			l.advance()
			l.advance()
			l.add(Token{Type: ARROW})
		} else if ok && isDigit(nx) {
			l.advance()
			n, err := l.scanNumber()
			if err != nil {
				return err
			}
			l.add(Token{Type: NUMBER, Num: -n})
		} else {
			l.advance()
			l.add(Token{Type: MINUS})
		}
	case '/':
		if nx, ok := l.peekN(1); ok && nx == '/' {
			l.skipLineComment()
		} else if ok && nx == '*' {
			if err := l.skipBlockComment(); err != nil {
				return err
			}
		} else {
			l.advance()
			l.add(Token{Type: SLASH})
		}
	case '!':
		if nx, ok := l.peekN(1); ok && nx == '=' {
			l.advance()
			l.advance()
			l.add(Token{Type: NEQ})
		} else {
			return l.err("unexpected '!'")
		}
	case '>':
		l.advance()
		if nx, ok := l.peek(); ok && nx == '=' {
			l.advance()
			l.add(Token{Type: GTEQ})
		} else {
			l.add(Token{Type: GT})
		}
	case '<':
		l.advance()
		if nx, ok := l.peek(); ok && nx == '=' {
			l.advance()
			l.add(Token{Type: LTEQ})
		} else {
			l.add(Token{Type: LT})
		}
	case '"', '\'':
		s, err := l.scanString()
		if err != nil {
			return err
		}
		l.add(Token{Type: STRING, Text: s})
	default:
		switch {
		case isDigit(ch):
			n, err := l.scanNumber()
			if err != nil {
				return err
			}
			l.add(Token{Type: NUMBER, Num: n})
		case isAlpha(ch):
			name := l.scanIdentifier()
			if keywords[name] {
				l.add(Token{Type: KEYWORD, Text: name})
			} else {
				l.add(Token{Type: IDENT, Text: name})
			}
		default:
			return l.err(fmt.Sprintf("unexpected character %q", ch))
		}
	}
	return nil
}

// ----- errors -----

type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexical error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

func (l *Lexer) err(msg string) error {
	return &LexError{Line: l.tokStartLine, Col: l.tokStartCol, Msg: msg}
}

// ----- scanners -----

func (l *Lexer) skipLineComment() {
	l.advance()
	l.advance()
	for !l.isAtEnd() {
		ch, _ := l.advance()
		if ch == '\n' {
			return
		}
	}
}

func (l *Lexer) skipBlockComment() error {
	l.advance()
	l.advance()
	for !l.isAtEnd() {
		ch, _ := l.peek()
		if ch == '*' {
			if nx, ok := l.peekN(1); ok && nx == '/' {
				l.advance()
				l.advance()
				return nil
			}
		}
		l.advance()
	}
	return l.err("unclosed block comment")
}

// scanIdentifier consumes an identifier. '-' is an identifier
// character after the first, so foo-bar is a single name.
func (l *Lexer) scanIdentifier() string {
	start := l.cur
	for !l.isAtEnd() {
		ch, _ := l.peek()
		if isAlphaNum(ch) || ch == '-' {
			l.advance()
		} else {
			break
		}
	}
	return l.src[start:l.cur]
}

// scanNumber consumes digits with at most one interior decimal point;
// the point must be followed by a digit.
func (l *Lexer) scanNumber() (float64, error) {
	start := l.cur
	hasDot := false
	for !l.isAtEnd() {
		ch, _ := l.peek()
		if isDigit(ch) {
			l.advance()
			continue
		}
		if ch == '.' && !hasDot {
			if nx, ok := l.peekN(1); ok && isDigit(nx) {
				hasDot = true
				l.advance()
				continue
			}
		}
		break
	}
	n, err := strconv.ParseFloat(l.src[start:l.cur], 64)
	if err != nil {
		return 0, l.err("invalid number")
	}
	return n, nil
}

// scanString consumes a single- or double-quoted string literal with
// backslash escapes (\n, \t; any other escaped byte stands for itself).
func (l *Lexer) scanString() (string, error) {
	quote, _ := l.advance()
	var out []byte
	for !l.isAtEnd() {
		ch, _ := l.advance()
		if ch == quote {
			return string(out), nil
		}
		if ch == '\\' {
			esc, ok := l.advance()
			if !ok {
				return "", l.err("unterminated string")
			}
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			default:
				out = append(out, esc)
			}
			continue
		}
		out = append(out, ch)
	}
	return "", l.err("unterminated string")
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_'
}

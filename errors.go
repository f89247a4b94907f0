// errors.go — user-facing error wrapping and caret-snippet rendering.
//
// WrapErrorWithSource turns the lexer's and parser's positioned
// diagnostics into readable snippets with a caret pointing at the
// offending column:
//
//	PARSE ERROR at 2:9: incomplete tag (depth 1; left filled, right empty)
//
//	   1 | [character:
//	   2 |     [text]
//	       |        ^
//	   3 | ]
//
// The snippet shows up to one line of context on each side. Errors
// without positions (evaluation and validation errors) pass through
// unchanged. Output is plain text, suitable for logs and terminals.
package packard

import (
	"fmt"
	"strings"
)

// WrapErrorWithSource returns err augmented with a caret-annotated
// snippet of src when err is a *LexError or *ParseError; any other
// error is returned as-is.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a source name shown in
// the header ("PARSE ERROR in file.psl at ...").
func WrapErrorWithName(err error, srcName string, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", prettySnippet(src, "LEXICAL ERROR", srcName, e.Line, e.Col, e.Msg))
	case *ParseError:
		msg := e.Msg + contextSuffix(e)
		return fmt.Errorf("%s", prettySnippet(src, "PARSE ERROR", srcName, e.Line, e.Col, msg))
	default:
		return err
	}
}

func contextSuffix(e *ParseError) string {
	s := fmt.Sprintf(" (depth %d", e.Depth)
	if e.InTag {
		s += fmt.Sprintf("; left %s, right %s", slotState(e.LeftFilled), slotState(e.RightFilled))
	}
	return s + ")"
}

// prettySnippet builds the caret snippet. The header reports the
// coordinates as given; for selecting snippet lines they are 1-based
// and clamped to the source bounds so rendering never fails.
func prettySnippet(src, header, name string, line, col int, msg string) string {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}

	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad > len(lineTxt) {
		caretPad = len(lineTxt)
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}

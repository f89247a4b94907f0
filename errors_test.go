// errors_test.go
package packard

import (
	"errors"
	"strings"
	"testing"
)

func wrapSrc(t *testing.T, src string) string {
	t.Helper()
	_, err := ParseSource(src)
	if err == nil {
		t.Fatalf("source %q: expected error", src)
	}
	return WrapErrorWithSource(err, src).Error()
}

func Test_Errors_ParseSnippet_CaretAndContext(t *testing.T) {
	src := "[character:\n    [text]\n]"
	msg := wrapSrc(t, src)

	for _, want := range []string{
		"PARSE ERROR at 2:10",
		"incomplete tag",
		"(depth 2; left filled, right empty)",
		"   1 | [character:",
		"   2 |     [text]",
		"   3 | ]",
		"^",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("wrapped error missing %q:\n%s", want, msg)
		}
	}
}

func Test_Errors_LexSnippet_Header(t *testing.T) {
	msg := wrapSrc(t, "[a: $]")
	if !strings.Contains(msg, "LEXICAL ERROR at 1:5") {
		t.Fatalf("wrapped error missing lex header:\n%s", msg)
	}
	if !strings.Contains(msg, "unexpected character") {
		t.Fatalf("wrapped error missing message:\n%s", msg)
	}
}

func Test_Errors_NamedSource(t *testing.T) {
	src := "[a:"
	_, err := ParseSource(src)
	msg := WrapErrorWithName(err, "intro.psl", src).Error()
	if !strings.Contains(msg, "PARSE ERROR in intro.psl at ") {
		t.Fatalf("wrapped error missing source name:\n%s", msg)
	}
}

func Test_Errors_CaretColumn(t *testing.T) {
	// The caret sits under the offending column: a second 'b' filling
	// an occupied slot at 1:7.
	msg := wrapSrc(t, "[a: b b]")
	lines := strings.Split(msg, "\n")
	var caretLine string
	for _, l := range lines {
		if strings.Contains(l, "^") {
			caretLine = l
			break
		}
	}
	if caretLine == "" {
		t.Fatalf("no caret line in:\n%s", msg)
	}
	if got := strings.Index(caretLine, "^"); got != len("     | ")+6 {
		t.Fatalf("caret at column %d:\n%s", got, msg)
	}
}

func Test_Errors_OtherErrorsPassThrough(t *testing.T) {
	base := errors.New("boom")
	if got := WrapErrorWithSource(base, "src"); got != base {
		t.Fatalf("non-positioned errors must pass through, got %v", got)
	}
}

func Test_Errors_PositionClamping(t *testing.T) {
	// Out-of-range positions must render rather than panic: the header
	// keeps the reported coordinates, the snippet falls back to the
	// nearest real line with the caret clamped to its end.
	err := &ParseError{Msg: "x", Line: 99, Col: 99}
	msg := WrapErrorWithSource(err, "[a]").Error()
	if !strings.Contains(msg, "PARSE ERROR at 99:99") {
		t.Fatalf("unexpected render:\n%s", msg)
	}
	if !strings.Contains(msg, "   1 | [a]") {
		t.Fatalf("snippet must show the clamped line:\n%s", msg)
	}
	if !strings.Contains(msg, "     |    ^") {
		t.Fatalf("caret must clamp to the line end:\n%s", msg)
	}
}

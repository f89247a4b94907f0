// trace.go — best-effort observational trace channel.
//
// The evaluator reports its steps to a Tracer injected at
// construction. Tracing is side-effect-only: it must never influence
// an evaluation's outcome, and a destination that stops accepting
// writes is remembered and reported, not fatal.
package packard

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Tracer receives one line per parser/evaluator step.
type Tracer interface {
	Event(line string)
}

// NopTracer discards everything. It is the default tracer and the one
// tests use.
type NopTracer struct{}

func (NopTracer) Event(string) {}

// WriterTracer appends lines to an io.Writer. The first write error is
// latched and all later events are dropped; callers inspect Err after
// the run.
type WriterTracer struct {
	w   io.Writer
	err error
}

func NewWriterTracer(w io.Writer) *WriterTracer { return &WriterTracer{w: w} }

func (t *WriterTracer) Event(line string) {
	if t.err != nil {
		return
	}
	_, t.err = io.WriteString(t.w, line+"\n")
}

// Err reports the first write failure, if any.
func (t *WriterTracer) Err() error { return t.err }

// FileTracer writes the trace to a file, creating or truncating it.
type FileTracer struct {
	f *os.File
	WriterTracer
}

func NewFileTracer(path string) (*FileTracer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileTracer{f: f, WriterTracer: WriterTracer{w: f}}, nil
}

func (t *FileTracer) Close() error { return t.f.Close() }

// WriteTagTrace dumps a parse tree to w in the debug trace format:
// a header followed by the nested Composite/primitive structure.
func WriteTagTrace(w io.Writer, root *TagNode) error {
	if _, err := fmt.Fprintf(w, "=== Parse Tree Trace ===\n\n"); err != nil {
		return err
	}
	if err := traceTag(w, root, 1); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func traceTag(w io.Writer, n *TagNode, depth int) error {
	indent := strings.Repeat("  ", depth)
	if n.IsPrimitive() {
		_, err := fmt.Fprintf(w, "%s%s\n", indent, tracePrimitive(*n.Prim))
		return err
	}
	if _, err := fmt.Fprintf(w, "%sComposite {\n", indent); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s  ltag:\n", indent); err != nil {
		return err
	}
	if err := traceTag(w, n.Left, depth+2); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s  rtag:\n", indent); err != nil {
		return err
	}
	if err := traceTag(w, n.Right, depth+2); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s}\n", indent)
	return err
}

func tracePrimitive(p Primitive) string {
	switch p.Kind {
	case PrimIdentifier:
		return fmt.Sprintf("Identifier(%q)", p.Text)
	case PrimNumber:
		return fmt.Sprintf("Number(%s)", formatNumber(p.Num))
	case PrimString:
		return fmt.Sprintf("String(%q)", p.Text)
	default:
		return fmt.Sprintf("Keyword(%q)", p.Text)
	}
}

// printer.go — human-readable rendering of tags and values.
package packard

import "strings"

// FormatValue renders a runtime value for the CLI and REPL.
func FormatValue(v Value) string { return v.String() }

// FormatTag renders a tag tree on a single line: [left: right].
func FormatTag(n *TagNode) string { return n.String() }

// FormatTagTree renders a tag tree over multiple lines with the left
// and right sides labelled and indented, for debug output.
func FormatTagTree(n *TagNode) string { return formatTagIndent(n, 2) }

func formatTagIndent(n *TagNode, indent int) string {
	if n.IsPrimitive() {
		return n.Prim.DisplayString()
	}
	ind := strings.Repeat(" ", indent)
	var b strings.Builder
	b.WriteString("[\n")
	b.WriteString(ind)
	b.WriteString("ltag: ")
	b.WriteString(formatTagIndent(n.Left, indent+2))
	b.WriteString("\n")
	b.WriteString(ind)
	b.WriteString("rtag: ")
	b.WriteString(formatTagIndent(n.Right, indent+2))
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", indent-2))
	b.WriteString("]")
	return b.String()
}

package parse

import (
	"strconv"
	"strings"
)

// NodeType identifies the kind of a Node.
type NodeType int

const (
	NodeStatic NodeType = iota
	NodeMulti
	NodeVariable
	NodeSection
	NodePartial
)

func (t NodeType) String() string {
	switch t {
	case NodeStatic:
		return "static"
	case NodeMulti:
		return "multi"
	case NodeVariable:
		return "variable"
	case NodeSection:
		return "section"
	case NodePartial:
		return "partial"
	default:
		return "node(" + strconv.Itoa(int(t)) + ")"
	}
}

// Node is an element of the parsed token tree.
type Node interface {
	Type() NodeType
	// Position returns the byte offset of the node in its template source.
	Position() Pos
	String() string
	writeTo(sb *strings.Builder)
}

// Pos is a byte offset into the template source.
type Pos int

// Position returns p itself so node types can embed it.
func (p Pos) Position() Pos { return p }

// StaticNode holds literal template text.
type StaticNode struct {
	Pos
	Text string
}

func (n *StaticNode) Type() NodeType { return NodeStatic }

func (n *StaticNode) String() string { return dump(n) }

func (n *StaticNode) writeTo(sb *strings.Builder) {
	sb.WriteString("[:static, ")
	sb.WriteString(strconv.Quote(n.Text))
	sb.WriteByte(']')
}

// MultiNode is an ordered sequence of nodes. The tree root and every section
// body are MultiNodes.
type MultiNode struct {
	Pos
	Nodes []Node
}

func (n *MultiNode) Type() NodeType { return NodeMulti }

func (n *MultiNode) String() string { return dump(n) }

func (n *MultiNode) writeTo(sb *strings.Builder) {
	sb.WriteString("[:multi")
	for _, child := range n.Nodes {
		sb.WriteString(", ")
		child.writeTo(sb)
	}
	sb.WriteByte(']')
}

func (n *MultiNode) append(node Node) {
	n.Nodes = append(n.Nodes, node)
}

// VariableNode is an interpolation tag. Path holds the dot-split name; an empty
// Path is the implicit iterator `{{.}}` and refers to the current frame.
type VariableNode struct {
	Pos
	Line   int
	Path   []string
	Escape bool
}

func (n *VariableNode) Type() NodeType { return NodeVariable }

func (n *VariableNode) String() string { return dump(n) }

// Name returns the dotted tag name as written in the template.
func (n *VariableNode) Name() string { return joinPath(n.Path) }

func (n *VariableNode) writeTo(sb *strings.Builder) {
	if n.Escape {
		sb.WriteString("[:etag, ")
	} else {
		sb.WriteString("[:utag, ")
	}
	writePath(sb, n.Path)
	sb.WriteByte(']')
}

// SectionNode is a `{{#name}}` or `{{^name}}` block. Raw is the untouched
// source between the opening and closing tags and Delims the delimiter pair in
// effect when the section closed; lambdas receive Raw and their result is
// re-parsed with Delims.
type SectionNode struct {
	Pos
	Line     int
	Path     []string
	Inverted bool
	Body     *MultiNode
	Raw      string
	Delims   Delims
}

func (n *SectionNode) Type() NodeType { return NodeSection }

func (n *SectionNode) String() string { return dump(n) }

// Name returns the dotted section name as written in the template.
func (n *SectionNode) Name() string { return joinPath(n.Path) }

func (n *SectionNode) writeTo(sb *strings.Builder) {
	if n.Inverted {
		sb.WriteString("[:inverted_section, ")
	} else {
		sb.WriteString("[:section, ")
	}
	writePath(sb, n.Path)
	sb.WriteString(", ")
	n.Body.writeTo(sb)
	sb.WriteString(", ")
	sb.WriteString(strconv.Quote(n.Raw))
	sb.WriteString(", [")
	sb.WriteString(strconv.Quote(n.Delims.Open))
	sb.WriteString(", ")
	sb.WriteString(strconv.Quote(n.Delims.Close))
	sb.WriteString("]]")
}

// PartialNode references a named partial. Indent is the leading whitespace of
// a standalone partial tag and is prefixed to every line the partial renders.
type PartialNode struct {
	Pos
	Line   int
	Name   string
	Indent string
}

func (n *PartialNode) Type() NodeType { return NodePartial }

func (n *PartialNode) String() string { return dump(n) }

func (n *PartialNode) writeTo(sb *strings.Builder) {
	sb.WriteString("[:partial, ")
	sb.WriteString(strconv.Quote(n.Name))
	sb.WriteString(", ")
	sb.WriteString(strconv.Quote(n.Indent))
	sb.WriteByte(']')
}

func dump(n Node) string {
	var sb strings.Builder
	n.writeTo(&sb)
	return sb.String()
}

func writePath(sb *strings.Builder, path []string) {
	sb.WriteByte('[')
	for i, segment := range path {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(segment))
	}
	sb.WriteByte(']')
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "."
	}
	return strings.Join(path, ".")
}

// Template pairs template source with its parsed tree.
type Template struct {
	Name   string
	Source string
	Delims Delims
	Root   *MultiNode
}

// String returns the token dump of the template tree.
func (t *Template) String() string {
	if t == nil || t.Root == nil {
		return "[:multi]"
	}
	return t.Root.String()
}

package parse

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// sigils classify a tag by the character right after the open delimiter.
	sigils = "#^/=!<>{&"
	// standaloneSigils mark tags that swallow their line when they are the
	// only content on it.
	standaloneSigils = "#^/<>=!"
	// nameSymbols are allowed in tag names besides letters, digits and '_'.
	nameSymbols = "?!/.-"
)

// Option configures a single Parse call.
type Option func(*parser)

// WithDelims starts parsing with the supplied delimiter pair instead of the
// defaults. Empty halves fall back to `{{` and `}}`.
func WithDelims(delims Delims) Option {
	return func(p *parser) {
		p.delims = delims.OrDefault()
	}
}

// WithName labels the returned Template.
func WithName(name string) Option {
	return func(p *parser) {
		p.name = strings.TrimSpace(name)
	}
}

// Parse scans source into a Template. It returns a *SyntaxError for unclosed
// tags or sections, closing tags without a matching open tag, mismatched
// section names and empty or illegal tag content.
func Parse(source string, options ...Option) (*Template, error) {
	p := &parser{
		src:    source,
		delims: DefaultDelims,
		line:   1,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	start := p.delims

	p.root = &MultiNode{}
	p.cur = p.root
	if err := p.run(); err != nil {
		return nil, err
	}
	return &Template{
		Name:   p.name,
		Source: source,
		Delims: start,
		Root:   p.root,
	}, nil
}

// Compile parses source with the default delimiters and returns the root node.
func Compile(source string) (*MultiNode, error) {
	tmpl, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return tmpl.Root, nil
}

// MustParse is like Parse but panics on error. Useful for templates embedded
// in code.
func MustParse(source string, options ...Option) *Template {
	tmpl, err := Parse(source, options...)
	if err != nil {
		panic(err)
	}
	return tmpl
}

type openSection struct {
	node     *SectionNode
	name     string
	parent   *MultiNode
	namePos  int
	bodyFrom int
}

type parser struct {
	name   string
	src    string
	pos    int
	delims Delims

	root *MultiNode
	cur  *MultiNode
	open []openSection

	line    int
	linePos int
}

func (p *parser) run() error {
	for p.pos < len(p.src) {
		rel := strings.Index(p.src[p.pos:], p.delims.Open)
		if rel < 0 {
			p.static(p.pos, len(p.src))
			p.pos = len(p.src)
			break
		}

		tagAt := p.pos + rel
		textEnd := tagAt
		padding := ""
		atLineStart := false

		// Leading whitespace is held back while the tag might turn out to be
		// standalone; it is re-inserted below when it is not.
		lineStart := strings.LastIndexByte(p.src[:tagAt], '\n') + 1
		if lineStart >= p.pos && isHorizontalSpace(p.src[lineStart:tagAt]) {
			textEnd = lineStart
			padding = p.src[lineStart:tagAt]
			atLineStart = true
		}

		p.static(p.pos, textEnd)
		p.pos = tagAt
		if err := p.tag(padding, atLineStart); err != nil {
			return err
		}
	}

	if len(p.open) > 0 {
		outer := p.open[0]
		return p.errorf(outer.namePos, "Unclosed section %q", outer.name)
	}
	return nil
}

func (p *parser) tag(padding string, atLineStart bool) error {
	tagAt := p.pos
	closeDelim := p.delims.Close
	p.pos += len(p.delims.Open)

	var sigil byte
	if p.pos < len(p.src) && strings.IndexByte(sigils, p.src[p.pos]) >= 0 {
		sigil = p.src[p.pos]
		p.pos++
	}
	p.skipSpace()

	var content string
	if sigil == '!' || sigil == '=' {
		rel := strings.Index(p.src[p.pos:], closeDelim)
		if rel < 0 {
			return p.errorf(len(p.src), "Unclosed tag")
		}
		content = trimBalanced(p.src[p.pos:p.pos+rel], sigil)
		p.pos += len(content)
	} else {
		content = p.scanName()
	}
	if content == "" {
		return p.errorf(p.pos, "Illegal content in tag")
	}
	namePos := p.pos

	p.skipSpace()
	if closing := balancing(sigil); closing != 0 && p.pos < len(p.src) && p.src[p.pos] == closing {
		p.pos++
	}
	if !strings.HasPrefix(p.src[p.pos:], closeDelim) {
		return p.errorf(p.pos, "Unclosed tag")
	}
	p.pos += len(closeDelim)

	standalone := false
	if atLineStart && sigil != 0 && strings.IndexByte(standaloneSigils, sigil) >= 0 {
		if next, ok := endOfLine(p.src, p.pos); ok {
			standalone = true
			p.pos = next
		}
	}
	if !standalone && padding != "" {
		p.static(tagAt-len(padding), tagAt)
	}

	line := p.lineAt(tagAt)

	switch sigil {
	case '#', '^':
		node := &SectionNode{
			Pos:      Pos(tagAt),
			Line:     line,
			Path:     splitPath(content),
			Inverted: sigil == '^',
			Body:     &MultiNode{Pos: Pos(p.pos)},
		}
		p.cur.append(node)
		p.open = append(p.open, openSection{
			node:     node,
			name:     content,
			parent:   p.cur,
			namePos:  namePos,
			bodyFrom: p.pos,
		})
		p.cur = node.Body

	case '/':
		if len(p.open) == 0 {
			return p.errorf(namePos, "Closing unopened %q", content)
		}
		top := p.open[len(p.open)-1]
		p.open = p.open[:len(p.open)-1]
		if top.name != content {
			return p.errorf(top.namePos, "Unclosed section %q", top.name)
		}
		top.node.Raw = p.src[top.bodyFrom:tagAt]
		top.node.Delims = p.delims
		p.cur = top.parent

	case '!':
		// comments leave no node

	case '=':
		delims, ok := parseDelims(content)
		if !ok {
			return p.errorf(namePos, "Invalid delimiter tag")
		}
		p.delims = delims

	case '>', '<':
		indent := ""
		if standalone {
			indent = padding
		}
		p.cur.append(&PartialNode{
			Pos:    Pos(tagAt),
			Line:   line,
			Name:   content,
			Indent: indent,
		})

	case '{', '&':
		p.cur.append(&VariableNode{Pos: Pos(tagAt), Line: line, Path: splitPath(content)})

	default:
		p.cur.append(&VariableNode{Pos: Pos(tagAt), Line: line, Path: splitPath(content), Escape: true})
	}
	return nil
}

// static appends src[from:to] to the current node list, merging it into a
// preceding static node.
func (p *parser) static(from, to int) {
	if from >= to {
		return
	}
	text := p.src[from:to]
	if n := len(p.cur.Nodes); n > 0 {
		if prev, ok := p.cur.Nodes[n-1].(*StaticNode); ok && int(prev.Pos)+len(prev.Text) == from {
			prev.Text += text
			return
		}
	}
	p.cur.append(&StaticNode{Pos: Pos(from), Text: text})
}

func (p *parser) scanName() string {
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isNameRune(r) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) lineAt(pos int) int {
	if pos < p.linePos {
		p.line, p.linePos = 1, 0
	}
	p.line += strings.Count(p.src[p.linePos:pos], "\n")
	p.linePos = pos
	return p.line
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return newSyntaxError(p.src, pos, fmt.Sprintf(format, args...))
}

func isNameRune(r rune) bool {
	if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return r < utf8.RuneSelf && strings.IndexByte(nameSymbols, byte(r)) >= 0
}

func isHorizontalSpace(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return false
		}
	}
	return true
}

// endOfLine reports whether only horizontal whitespace separates pos from the
// end of the line, returning the offset just past the line break.
func endOfLine(src string, pos int) (int, bool) {
	for pos < len(src) && (src[pos] == ' ' || src[pos] == '\t') {
		pos++
	}
	switch {
	case pos == len(src):
		return pos, true
	case src[pos] == '\n':
		return pos + 1, true
	case strings.HasPrefix(src[pos:], "\r\n"):
		return pos + 2, true
	default:
		return 0, false
	}
}

func balancing(sigil byte) byte {
	switch sigil {
	case '{':
		return '}'
	case '=', '!':
		return sigil
	default:
		return 0
	}
}

// trimBalanced drops a balancing sigil written directly before the close
// delimiter, then any trailing whitespace.
func trimBalanced(raw string, sigil byte) string {
	s := strings.TrimSuffix(raw, string(sigil))
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

func splitPath(name string) []string {
	if name == "." {
		return nil
	}
	return strings.Split(name, ".")
}

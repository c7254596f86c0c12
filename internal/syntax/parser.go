package syntax

import (
	"fmt"
	"strings"
)

// ParseError reports malformed input with the position of the offending
// token.
type ParseError struct {
	Pos Position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// semicolonItems are introduced by a keyword whose declaration always runs
// to a `;`, even when a brace group appears first (`use a::{b, c};`).
var semicolonItems = map[string]bool{
	"use":          true,
	"static":       true,
	"type":         true,
	"const":        true,
	"extern crate": true,
}

// Parse parses a Rust source file down to item granularity. Modules are
// parsed structurally, recursing into inline bodies; every other item is
// kept as its token sequence.
func Parse(filename, src string) (*File, error) {
	file := &File{}

	// A shebang is masked with spaces so token offsets, lines and columns
	// keep pointing into the original text.
	if line, ok := shebang(src); ok {
		file.Shebang = line
		src = strings.Repeat(" ", len(line)) + src[len(line):]
	}

	tokens, err := Lex(filename, src)
	if err != nil {
		return nil, err
	}

	p := &parser{filename: filename, src: src, toks: tokens}
	file.InnerAttrs, err = p.parseInnerAttrs()
	if err != nil {
		return nil, err
	}
	file.Items, file.Trailing, err = p.parseItems(false)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// shebang returns the first line when it is an interpreter line rather than
// an inner attribute such as `#![no_std]`.
func shebang(src string) (string, bool) {
	if !strings.HasPrefix(src, "#!") {
		return "", false
	}
	if strings.HasPrefix(strings.TrimLeft(src[2:], " \t"), "[") {
		return "", false
	}
	line := src
	if i := strings.IndexByte(src, '\n'); i >= 0 {
		line = src[:i]
	}
	return strings.TrimRight(line, "\r"), true
}

type parser struct {
	filename string
	src      string
	toks     []Token
	pos      int
}

func (p *parser) errorf(pos Position, format string, args ...any) error {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eofPos() Position {
	if len(p.toks) == 0 {
		return Position{Filename: p.filename, Line: 1, Column: 1}
	}
	last := p.toks[len(p.toks)-1]
	return last.Pos
}

func (p *parser) atEOF() bool { return p.pos >= len(p.toks) }

// trivia consumes whitespace and plain comments at the cursor.
func (p *parser) trivia() []Token {
	start := p.pos
	for p.pos < len(p.toks) && p.toks[p.pos].IsTrivia() {
		p.pos++
	}
	return p.toks[start:p.pos]
}

// sig returns the index of the first significant token at or after i, or -1.
func (p *parser) sig(i int) int {
	for ; i < len(p.toks); i++ {
		if !p.toks[i].IsTrivia() {
			return i
		}
	}
	return -1
}

// sigIs reports whether the first significant token at or after i is s.
func (p *parser) sigIs(i int, s string) (int, bool) {
	j := p.sig(i)
	if j < 0 {
		return -1, false
	}
	return j, p.toks[j].Is(s)
}

// indentOf returns the leading whitespace of the line holding t.
func (p *parser) indentOf(t Token) string {
	lineStart := strings.LastIndexByte(p.src[:t.Pos.Offset], '\n') + 1
	line := p.src[lineStart:t.Pos.Offset]
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// closeGroup returns the index just past the delimiter that closes the group
// opened at index i.
func (p *parser) closeGroup(i int) (int, error) {
	depth := 0
	for j := i; j < len(p.toks); j++ {
		t := p.toks[j]
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			depth--
			if depth == 0 {
				return j + 1, nil
			}
		}
	}
	return 0, p.errorf(p.toks[i].Pos, "unclosed delimiter %q", p.toks[i].Text)
}

// attrAt reports whether an attribute starts at index i (`#[` or `#![`)
// and whether it is inner.
func (p *parser) attrAt(i int) (inner, ok bool) {
	if i >= len(p.toks) || !p.toks[i].Is("#") {
		return false, false
	}
	j := p.sig(i + 1)
	if j < 0 {
		return false, false
	}
	if p.toks[j].Is("!") {
		if _, ok := p.sigIs(j+1, "["); ok {
			return true, true
		}
		return false, false
	}
	return false, p.toks[j].Is("[")
}

// parseAttrGroup consumes `#[...]` or `#![...]` starting at the cursor.
func (p *parser) parseAttrGroup() ([]Token, error) {
	start := p.pos
	open := p.sig(start + 1)
	if p.toks[open].Is("!") {
		open = p.sig(open + 1)
	}
	end, err := p.closeGroup(open)
	if err != nil {
		return nil, err
	}
	p.pos = end
	return p.toks[start:end], nil
}

// parseInnerAttrs consumes leading `#![...]` attributes and `//!` comments.
func (p *parser) parseInnerAttrs() ([]Attribute, error) {
	var attrs []Attribute
	for {
		save := p.pos
		lead := p.trivia()
		if p.atEOF() {
			p.pos = save
			return attrs, nil
		}
		t := p.toks[p.pos]
		if t.IsInnerDoc() {
			attrs = append(attrs, Attribute{Leading: lead, Tokens: p.toks[p.pos : p.pos+1], Indent: p.indentOf(t)})
			p.pos++
			continue
		}
		if inner, ok := p.attrAt(p.pos); ok && inner {
			toks, err := p.parseAttrGroup()
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, Attribute{Leading: lead, Tokens: toks, Indent: p.indentOf(t)})
			continue
		}
		p.pos = save
		return attrs, nil
	}
}

// parseOuterAttrs consumes the attributes and doc comments in front of an
// item. Trivia after the last attribute is left in place.
func (p *parser) parseOuterAttrs() ([]Attribute, error) {
	var attrs []Attribute
	for {
		save := p.pos
		lead := p.trivia()
		if p.atEOF() {
			p.pos = save
			return attrs, nil
		}
		t := p.toks[p.pos]
		if t.IsDoc() {
			attrs = append(attrs, Attribute{Leading: lead, Tokens: p.toks[p.pos : p.pos+1], Indent: p.indentOf(t)})
			p.pos++
			continue
		}
		if _, ok := p.attrAt(p.pos); ok {
			toks, err := p.parseAttrGroup()
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, Attribute{Leading: lead, Tokens: toks, Indent: p.indentOf(t)})
			continue
		}
		p.pos = save
		return attrs, nil
	}
}

// parseItems parses items until end of input, or until the `}` closing a
// module body when inBrace is set. The closing brace is not consumed.
func (p *parser) parseItems(inBrace bool) ([]Item, []Token, error) {
	var items []Item
	for {
		lead := p.trivia()
		if p.atEOF() {
			if inBrace {
				return nil, nil, p.errorf(p.eofPos(), "unexpected end of input: module body is not closed")
			}
			return items, lead, nil
		}
		t := p.toks[p.pos]
		if isClose(t) {
			if inBrace && t.Is("}") {
				return items, lead, nil
			}
			return nil, nil, p.errorf(t.Pos, "unexpected %q", t.Text)
		}
		it, err := p.parseItem(lead)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, it)
	}
}

func (p *parser) parseItem(lead []Token) (Item, error) {
	start := p.pos
	indent := p.indentOf(p.toks[start])

	attrs, err := p.parseOuterAttrs()
	if err != nil {
		return nil, err
	}

	headerStart := p.pos
	vis, err := p.parseVis()
	if err != nil {
		return nil, err
	}
	isUnsafe := false
	if i, ok := p.sigIs(p.pos, "unsafe"); ok {
		if _, isMod := p.sigIs(i+1, "mod"); isMod {
			isUnsafe = true
			p.pos = i + 1
		}
	}
	if i, ok := p.sigIs(p.pos, "mod"); ok {
		if j := p.sig(i + 1); j >= 0 && p.toks[j].Kind == Ident {
			p.pos = i
			mod, err := p.parseModule(attrs, vis, isUnsafe)
			if err != nil {
				return nil, err
			}
			mod.leading = lead
			mod.position = p.toks[start].Pos
			mod.Indent = indent
			return mod, nil
		}
	}

	p.pos = headerStart
	keyword := p.itemKeyword()
	end, err := p.scanItemEnd(start, semicolonItems[keyword])
	if err != nil {
		return nil, err
	}
	p.pos = end
	tokens := make([]Token, 0, end-start+2)
	tokens = append(tokens, p.toks[start:end]...)
	tokens = append(tokens, p.sameLineComment()...)
	return &Verbatim{leading: lead, Keyword: keyword, Tokens: tokens, Indent: indent}, nil
}

// parseVis consumes `pub` and an optional restriction such as `pub(crate)`.
func (p *parser) parseVis() (string, error) {
	i, ok := p.sigIs(p.pos, "pub")
	if !ok {
		return "", nil
	}
	end := i + 1
	if j, ok := p.sigIs(end, "("); ok {
		var err error
		if end, err = p.closeGroup(j); err != nil {
			return "", err
		}
	}
	p.pos = end
	return collapse(p.toks[i:end]), nil
}

// parseModule parses `mod name;` or `mod name { ... }` with the cursor on
// the `mod` keyword.
func (p *parser) parseModule(attrs []Attribute, vis string, isUnsafe bool) (*Module, error) {
	p.pos++ // mod
	p.trivia()
	name := p.toks[p.pos]
	p.pos++
	mod := &Module{Attrs: attrs, Vis: vis, Unsafe: isUnsafe, Ident: name.Text}

	p.trivia()
	if p.atEOF() {
		return nil, p.errorf(name.Pos, "expected `;` or `{` after `mod %s`", name.Text)
	}
	switch t := p.toks[p.pos]; {
	case t.Is(";"):
		p.pos++
	case t.Is("{"):
		p.pos++
		content := &ModuleContent{}
		var err error
		if content.InnerAttrs, err = p.parseInnerAttrs(); err != nil {
			return nil, err
		}
		if content.Items, content.Trailing, err = p.parseItems(true); err != nil {
			return nil, err
		}
		p.pos++ // }
		mod.Content = content
	default:
		return nil, p.errorf(t.Pos, "expected `;` or `{` after `mod %s`, found %q", name.Text, t.Text)
	}
	mod.Trailing = p.sameLineComment()
	return mod, nil
}

// sameLineComment consumes a plain comment that follows on the same line,
// together with the spaces before it.
func (p *parser) sameLineComment() []Token {
	i := p.pos
	if i < len(p.toks) && p.toks[i].Kind == Whitespace && !strings.Contains(p.toks[i].Text, "\n") {
		i++
	}
	if i < len(p.toks) && p.toks[i].IsTrivia() && p.toks[i].Kind != Whitespace {
		out := p.toks[p.pos : i+1]
		p.pos = i + 1
		return out
	}
	return nil
}

// itemKeyword classifies the item at the cursor by the keyword following
// its visibility and qualifiers.
func (p *parser) itemKeyword() string {
	i := p.sig(p.pos)
	if i < 0 {
		return ""
	}
	if p.toks[i].Is("pub") {
		i = p.sig(i + 1)
		if i >= 0 && p.toks[i].Is("(") {
			end, err := p.closeGroup(i)
			if err != nil {
				return ""
			}
			i = p.sig(end)
		}
	}
	for i >= 0 {
		t := p.toks[i]
		next := p.sig(i + 1)
		switch {
		case t.Is("unsafe"), t.Is("async"), t.Is("default"), t.Is("safe"):
			i = next
		case t.Is("const"):
			if next >= 0 && (p.toks[next].Is("fn") || p.toks[next].Is("unsafe") || p.toks[next].Is("async") || p.toks[next].Is("extern")) {
				i = next
				continue
			}
			return "const"
		case t.Is("extern"):
			if next >= 0 && p.toks[next].Is("crate") {
				return "extern crate"
			}
			if next >= 0 && p.toks[next].Kind == Literal {
				next = p.sig(next + 1)
			}
			if next >= 0 && p.toks[next].Is("{") {
				return "extern"
			}
			i = next
		case t.Kind == Ident:
			// A path followed by `!` is a macro invocation.
			j := i
			for j >= 0 && (p.toks[j].Kind == Ident || p.toks[j].Is("::")) {
				j = p.sig(j + 1)
			}
			if j >= 0 && p.toks[j].Is("!") {
				return "macro"
			}
			return t.Text
		default:
			return t.Text
		}
	}
	return ""
}

// scanItemEnd returns the index just past the end of the item at the
// cursor, which began at index start: the first `;` outside any group, or,
// unless semicolon is set, the `}` closing the first top-level brace group
// that is not a const generic argument.
func (p *parser) scanItemEnd(start int, semicolon bool) (int, error) {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.IsTrivia() || t.IsDoc() {
			continue
		}
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			if depth == 0 {
				return 0, p.errorf(t.Pos, "unexpected %q", t.Text)
			}
			depth--
			if depth == 0 && t.Is("}") && !semicolon && !p.inGenericArgs(i+1) {
				return i + 1, nil
			}
		case depth == 0 && t.Is(";"):
			return i + 1, nil
		}
	}
	return 0, p.errorf(p.eofPos(), "unexpected end of input: item starting at %s is not terminated", p.toks[start].Pos)
}

// inGenericArgs reports whether the brace group that just closed before
// index i sits inside angle brackets, as in `Foo<{ N + 1 }>`: the next
// significant token continues the argument list instead of starting an item.
func (p *parser) inGenericArgs(i int) bool {
	for ; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.IsTrivia() || t.IsDoc() {
			continue
		}
		return t.Kind == Punct && (t.Text == "," || strings.HasPrefix(t.Text, ">"))
	}
	return false
}

// collapse renders tokens with runs of trivia reduced to a single space.
func collapse(tokens []Token) string {
	var b strings.Builder
	pendingSpace := false
	for _, t := range tokens {
		if t.IsTrivia() {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

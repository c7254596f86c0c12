package syntax

import (
	"strconv"
	"strings"
	"unicode"
)

// File is a parsed source file, or the extracted content of a module that
// is about to become a file of its own.
type File struct {
	// Shebang is the `#!...` interpreter line, without newline. Only the
	// crate root can carry one.
	Shebang string

	// InnerAttrs are `#![...]` attributes and `//!` doc comments that apply
	// to the file's module.
	InnerAttrs []Attribute

	// Items in document order.
	Items []Item

	// Trailing holds comments after the last item.
	Trailing []Token
}

// Item is a top-level declaration. The concrete types are *Module and
// *Verbatim.
type Item interface {
	// Pos returns the position of the item's first token.
	Pos() Position
	// Leading returns the whitespace and comments that precede the item.
	Leading() []Token

	item()
}

// Attribute is an outer or inner attribute, or a doc comment, kept as the
// tokens it was written with.
type Attribute struct {
	Leading []Token
	Tokens  []Token
	// Indent is the indentation of the line the attribute starts on.
	Indent string
}

// PathAttribute builds `#[path = "value"]`.
func PathAttribute(value string) Attribute {
	return Attribute{Tokens: []Token{
		{Kind: Punct, Text: "#"},
		{Kind: Punct, Text: "["},
		{Kind: Ident, Text: "path"},
		{Kind: Whitespace, Text: " "},
		{Kind: Punct, Text: "="},
		{Kind: Whitespace, Text: " "},
		{Kind: Literal, Text: QuoteString(value)},
		{Kind: Punct, Text: "]"},
	}}
}

// Name returns the attribute path (`path`, `cfg`, `doc`, ...). Doc
// comments report "doc".
func (a Attribute) Name() string {
	sig := significant(a.Tokens)
	if len(sig) == 1 && sig[0].IsDoc() {
		return "doc"
	}
	var b strings.Builder
loop:
	for _, t := range sig {
		switch {
		case t.Is("#"), t.Is("!"), t.Is("["):
		case t.Kind == Ident || t.Is("::"):
			b.WriteString(t.Text)
		default:
			break loop
		}
	}
	return b.String()
}

// IsInner reports whether the attribute is `#![...]` or an inner doc comment.
func (a Attribute) IsInner() bool {
	sig := significant(a.Tokens)
	if len(sig) == 0 {
		return false
	}
	if sig[0].IsDoc() {
		return sig[0].IsInnerDoc()
	}
	return len(sig) > 1 && sig[1].Is("!")
}

// Module is a `mod` declaration.
type Module struct {
	leading  []Token
	position Position

	// Attrs are the outer attributes, in source order.
	Attrs []Attribute
	// Vis is the visibility as written (`pub`, `pub(crate)`), or empty.
	Vis string
	// Unsafe records an `unsafe mod` declaration.
	Unsafe bool
	// Ident is the module identifier as written, raw prefix included.
	Ident string
	// Content is the inline body; nil for an external `mod name;`.
	Content *ModuleContent
	// Trailing is a comment on the same line as the declaration's end.
	Trailing []Token
	// Indent is the indentation of the line the declaration starts on.
	Indent string
}

// ModuleContent is the body of an inline module.
type ModuleContent struct {
	InnerAttrs []Attribute
	Items      []Item
	Trailing   []Token
}

func (m *Module) Pos() Position { return m.position }
func (m *Module) Leading() []Token { return m.leading }
func (m *Module) item() {}
func (m *Module) IsInline() bool { return m.Content != nil }
func (m *Module) IsExternal() bool { return m.Content == nil }

// Name returns the identifier without a raw `r#` prefix.
func (m *Module) Name() string {
	return strings.TrimPrefix(m.Ident, "r#")
}

// WithoutContent returns a copy of m declared as `mod name;`. The
// attribute slice is copied so appending to it never touches m.
func (m *Module) WithoutContent(extra ...Attribute) *Module {
	out := *m
	out.Content = nil
	out.Attrs = make([]Attribute, 0, len(m.Attrs)+len(extra))
	out.Attrs = append(out.Attrs, m.Attrs...)
	out.Attrs = append(out.Attrs, extra...)
	return &out
}

// WithItems returns a copy of m whose inline content holds items.
func (m *Module) WithItems(items []Item) *Module {
	out := *m
	content := *m.Content
	content.Items = items
	out.Content = &content
	return &out
}

// File returns the inline content of m as a standalone file. It returns nil
// for an external module.
func (m *Module) File() *File {
	if m.Content == nil {
		return nil
	}
	return &File{
		InnerAttrs: m.Content.InnerAttrs,
		Items:      m.Content.Items,
		Trailing:   m.Content.Trailing,
	}
}

// Verbatim is any item other than a module: functions, types, impls, uses,
// macro invocations. Its tokens are carried through unchanged.
type Verbatim struct {
	leading []Token

	// Keyword is the keyword that introduces the item (`fn`, `struct`,
	// `use`, ...), or "macro" for macro invocations and `macro_rules!`.
	Keyword string
	// Tokens covers the whole item, attributes and interior trivia
	// included.
	Tokens []Token
	// Indent is the indentation of the line the item starts on.
	Indent string
}

func (v *Verbatim) Pos() Position {
	if len(v.Tokens) == 0 {
		return Position{}
	}
	return v.Tokens[0].Pos
}
func (v *Verbatim) Leading() []Token { return v.leading }
func (v *Verbatim) item() {}

// NestedModule reports the first `mod` declaration found inside the item's
// delimited groups, such as a function body or a const block. Macro
// invocation arguments are skipped: their tokens are not declarations.
func (v *Verbatim) NestedModule() (string, Position, bool) {
	if v.Keyword == "macro" {
		return "", Position{}, false
	}
	sig := significant(v.Tokens)
	depth := 0
	for i := 0; i < len(sig); i++ {
		t := sig[i]
		switch {
		case isOpen(t):
			if macroGroup(sig, i) {
				i = skipGroup(sig, i)
				continue
			}
			depth++
		case isClose(t):
			depth--
		case depth > 0 && t.Is("mod") && i+2 < len(sig) && sig[i+1].Kind == Ident:
			if next := sig[i+2]; next.Is("{") || next.Is(";") {
				return strings.TrimPrefix(sig[i+1].Text, "r#"), t.Pos, true
			}
		}
	}
	return "", Position{}, false
}

// macroGroup reports whether the group opened at sig[i] holds macro
// arguments: `name!(...)` or `macro_rules! name { ... }`.
func macroGroup(sig []Token, i int) bool {
	if i >= 2 && sig[i-1].Is("!") && sig[i-2].Kind == Ident {
		return true
	}
	return i >= 3 && sig[i-1].Kind == Ident && sig[i-2].Is("!") && sig[i-3].Is("macro_rules")
}

// skipGroup returns the index of the delimiter closing the group opened at
// sig[i], or the last index when the group is unbalanced.
func skipGroup(sig []Token, i int) int {
	depth := 0
	for j := i; j < len(sig); j++ {
		switch {
		case isOpen(sig[j]):
			depth++
		case isClose(sig[j]):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(sig) - 1
}

func isOpen(t Token) bool { return t.Kind == Punct && (t.Text == "{" || t.Text == "(" || t.Text == "[") }
func isClose(t Token) bool { return t.Kind == Punct && (t.Text == "}" || t.Text == ")" || t.Text == "]") }

// significant drops trivia, keeping doc comments.
func significant(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if !t.IsTrivia() {
			out = append(out, t)
		}
	}
	return out
}

// Modules returns the modules among items, in order.
func Modules(items []Item) []*Module {
	var mods []*Module
	for _, it := range items {
		if m, ok := it.(*Module); ok {
			mods = append(mods, m)
		}
	}
	return mods
}

// QuoteString renders s as a Rust string literal.
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if unicode.IsPrint(r) {
				b.WriteRune(r)
			} else {
				b.WriteString(`\u{`)
				b.WriteString(strconv.FormatInt(int64(r), 16))
				b.WriteString(`}`)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

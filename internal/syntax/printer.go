package syntax

import (
	"fmt"
	"strings"
)

// Style selects how a tree is rendered back to text. Both styles produce
// equivalent source; they differ only in presentation.
type Style int

const (
	// StyleSource reproduces each item as it was written, comments
	// included, re-indented to its new nesting depth.
	StyleSource Style = iota
	// StyleTokens joins significant tokens with single spaces. Plain
	// comments are dropped; doc comments are kept.
	StyleTokens
)

// ValidStyles lists the accepted style names.
var ValidStyles = []string{"source", "tokens"}

func (s Style) String() string {
	switch s {
	case StyleSource:
		return "source"
	case StyleTokens:
		return "tokens"
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// ParseStyle converts a style name to a Style.
func ParseStyle(name string) (Style, error) {
	switch name {
	case "source", "":
		return StyleSource, nil
	case "tokens":
		return StyleTokens, nil
	}
	return 0, fmt.Errorf("invalid style %q: must be one of %v", name, ValidStyles)
}

const indentUnit = "    "

// Print renders f as Rust source text.
func Print(f *File, style Style) string {
	pr := &printer{style: style, lineStart: true}
	pr.file(f)
	return pr.buf.String()
}

type printer struct {
	style     Style
	buf       strings.Builder
	indent    string
	lineStart bool
}

// write emits s, inserting the current indentation at the start of every
// non-empty line.
func (pr *printer) write(s string) {
	for _, r := range s {
		if r == '\n' {
			pr.buf.WriteByte('\n')
			pr.lineStart = true
			continue
		}
		if pr.lineStart {
			pr.buf.WriteString(pr.indent)
			pr.lineStart = false
		}
		pr.buf.WriteRune(r)
	}
}

// writeRaw emits s without touching embedded line breaks. Used for
// literals and block comments whose content must not be re-indented.
func (pr *printer) writeRaw(s string) {
	if s == "" {
		return
	}
	if pr.lineStart {
		pr.buf.WriteString(pr.indent)
	}
	pr.buf.WriteString(s)
	pr.lineStart = strings.HasSuffix(s, "\n")
}

func (pr *printer) newline() {
	pr.buf.WriteByte('\n')
	pr.lineStart = true
}

func (pr *printer) file(f *File) {
	if f.Shebang != "" {
		pr.write(f.Shebang)
		pr.newline()
	}
	pr.body(f.InnerAttrs, f.Items, f.Trailing)
}

func (pr *printer) body(inner []Attribute, items []Item, trailing []Token) {
	for _, a := range inner {
		pr.attribute(a)
	}
	for _, it := range items {
		pr.item(it)
	}
	if pr.style == StyleSource {
		pr.leading(trailing)
	}
}

func (pr *printer) item(it Item) {
	switch it := it.(type) {
	case *Module:
		pr.module(it)
	case *Verbatim:
		if pr.style == StyleSource {
			pr.leading(it.Leading())
		}
		pr.tokens(it.Tokens, it.Indent)
		pr.newline()
	}
}

func (pr *printer) attribute(a Attribute) {
	if pr.style == StyleSource {
		pr.leading(a.Leading)
	}
	pr.tokens(a.Tokens, a.Indent)
	pr.newline()
}

func (pr *printer) module(m *Module) {
	if pr.style == StyleSource {
		pr.leading(m.Leading())
	}
	for _, a := range m.Attrs {
		pr.attribute(a)
	}
	var header strings.Builder
	if m.Vis != "" {
		header.WriteString(m.Vis)
		header.WriteByte(' ')
	}
	if m.Unsafe {
		header.WriteString("unsafe ")
	}
	header.WriteString("mod ")
	header.WriteString(m.Ident)
	pr.write(header.String())

	if m.Content == nil {
		if pr.style == StyleTokens {
			pr.write(" ;")
		} else {
			pr.write(";")
		}
	} else {
		pr.write(" {")
		pr.newline()
		outer := pr.indent
		pr.indent += indentUnit
		pr.body(m.Content.InnerAttrs, m.Content.Items, m.Content.Trailing)
		pr.indent = outer
		pr.write("}")
	}
	if pr.style == StyleSource {
		pr.tokens(m.Trailing, m.Indent)
	}
	pr.newline()
}

// leading emits the comments found between two items and keeps a single
// blank line where the source had one or more.
func (pr *printer) leading(toks []Token) {
	newlines := 0
	for _, t := range toks {
		switch t.Kind {
		case Whitespace:
			newlines += strings.Count(t.Text, "\n")
		case LineComment, BlockComment:
			pr.blankLine(newlines)
			pr.writeRaw(t.Text)
			pr.newline()
			newlines = 0
		}
	}
	pr.blankLine(newlines)
}

func (pr *printer) blankLine(newlines int) {
	if newlines >= 2 && pr.buf.Len() > 0 {
		pr.newline()
	}
}

func (pr *printer) tokens(toks []Token, indent string) {
	if pr.style == StyleTokens {
		pr.joined(toks)
		return
	}
	for _, t := range toks {
		switch t.Kind {
		case Whitespace:
			pr.whitespace(t.Text, indent)
		case Literal, BlockComment:
			pr.writeRaw(t.Text)
		default:
			pr.write(t.Text)
		}
	}
}

// whitespace re-indents a whitespace run: trailing blanks are dropped and
// each following line loses the item's original indentation.
func (pr *printer) whitespace(text, indent string) {
	if !strings.Contains(text, "\n") {
		pr.write(text)
		return
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		pr.newline()
	}
	pr.write(trimIndent(lines[len(lines)-1], indent))
}

// joined writes the significant tokens separated by single spaces. Line
// doc comments end their line.
func (pr *printer) joined(toks []Token) {
	space := false
	for _, t := range toks {
		if t.IsTrivia() {
			continue
		}
		if space {
			pr.write(" ")
		}
		switch {
		case t.Kind == LineComment:
			pr.write(t.Text)
			pr.newline()
			space = false
			continue
		case t.Kind == Literal || t.Kind == BlockComment:
			pr.writeRaw(t.Text)
		default:
			pr.write(t.Text)
		}
		space = true
	}
}

// trimIndent removes the longest common prefix of line and indent.
func trimIndent(line, indent string) string {
	n := 0
	for n < len(line) && n < len(indent) && line[n] == indent[n] {
		n++
	}
	return line[n:]
}

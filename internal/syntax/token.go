package syntax

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Kind classifies a token.
type Kind int

const (
	Whitespace Kind = iota
	LineComment
	BlockComment
	Ident
	Lifetime
	Literal
	Punct
)

var kindNames = map[Kind]string{
	Whitespace:   "whitespace",
	LineComment:  "line comment",
	BlockComment: "block comment",
	Ident:        "identifier",
	Lifetime:     "lifetime",
	Literal:      "literal",
	Punct:        "punctuation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Position locates a token in its source file. Line and Column are 1-based.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	name := p.Filename
	if name == "" {
		name = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", name, p.Line, p.Column)
}

// Token is a single lexeme, trivia included. Concatenating the Text of every
// token produced by Lex reproduces the input exactly.
type Token struct {
	Kind Kind
	Text string
	Pos  Position
}

// Is reports whether the token is the punctuation or identifier text s.
func (t Token) Is(s string) bool {
	return (t.Kind == Punct || t.Kind == Ident) && t.Text == s
}

// IsDoc reports whether the token is a doc comment (outer or inner).
func (t Token) IsDoc() bool {
	return t.IsOuterDoc() || t.IsInnerDoc()
}

// IsOuterDoc reports whether the token is a `///` or `/** */` doc comment.
func (t Token) IsOuterDoc() bool {
	switch t.Kind {
	case LineComment:
		return strings.HasPrefix(t.Text, "///") && !strings.HasPrefix(t.Text, "////")
	case BlockComment:
		return strings.HasPrefix(t.Text, "/**") && !strings.HasPrefix(t.Text, "/***") && t.Text != "/**/"
	}
	return false
}

// IsInnerDoc reports whether the token is a `//!` or `/*! */` doc comment.
func (t Token) IsInnerDoc() bool {
	switch t.Kind {
	case LineComment:
		return strings.HasPrefix(t.Text, "//!")
	case BlockComment:
		return strings.HasPrefix(t.Text, "/*!")
	}
	return false
}

// IsTrivia reports whether the token carries no syntax: whitespace and
// comments that are not doc comments.
func (t Token) IsTrivia() bool {
	switch t.Kind {
	case Whitespace:
		return true
	case LineComment, BlockComment:
		return !t.IsDoc()
	}
	return false
}

// rustLexer tokenizes Rust source. Rule order matters: the first matching
// rule wins, so raw strings and prefixed literals must precede identifiers
// and character literals must precede lifetimes.
var rustLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "BlockOpen", Pattern: `/\*`, Action: lexer.Push("BlockComment")},
		{Name: "RawString", Pattern: `[bc]?r(?:"[^"]*"|#"(?s:.*?)"#|##"(?s:.*?)"##|###"(?s:.*?)"###|####"(?s:.*?)"####)`},
		{Name: "String", Pattern: `[bc]?"(?:\\(?s:.)|[^"\\])*"`},
		{Name: "Char", Pattern: `b?'(?:\\(?:x[0-9a-fA-F]{2}|u\{[0-9a-fA-F_]{1,6}\}|.)|[^'\\\n\r\t])'`},
		{Name: "Lifetime", Pattern: `'(?:r#)?[\p{L}_][\p{L}\p{M}\p{N}_]*`},
		{Name: "Ident", Pattern: `r#[\p{L}_][\p{L}\p{M}\p{N}_]*|[\p{L}_][\p{L}\p{M}\p{N}_]*`},
		{Name: "Number", Pattern: `(?:0[xob][0-9a-fA-F_]+|[0-9][0-9_]*(?:\.[0-9][0-9_]*)?(?:[eE][+-]?[0-9_]+)?)[\p{L}\p{M}\p{N}_]*`},
		{Name: "Punct", Pattern: `>>=|<<=|\.\.\.|\.\.=|::|->|=>|==|!=|<=|>=|&&|\|\||\+=|-=|\*=|/=|%=|\^=|&=|\|=|<<|>>|\.\.|[-+*/%^!&|=<>@.,;:#$?~{}\[\]()\\]`},
	},
	"BlockComment": {
		{Name: "BlockOpen", Pattern: `/\*`, Action: lexer.Push("BlockComment")},
		{Name: "BlockClose", Pattern: `\*/`, Action: lexer.Pop()},
		{Name: "BlockText", Pattern: `[^*/]+|[*/]`},
	},
})

// kindOf maps lexer symbols onto token kinds. Block comment pieces are
// handled separately because they are merged into a single token.
var kindOf = func() map[lexer.TokenType]Kind {
	symbols := rustLexer.Symbols()
	return map[lexer.TokenType]Kind{
		symbols["Whitespace"]:  Whitespace,
		symbols["LineComment"]: LineComment,
		symbols["RawString"]:   Literal,
		symbols["String"]:      Literal,
		symbols["Char"]:        Literal,
		symbols["Lifetime"]:    Lifetime,
		symbols["Ident"]:       Ident,
		symbols["Number"]:      Literal,
		symbols["Punct"]:       Punct,
	}
}()

// Lex splits src into tokens. Nested block comments are returned as one
// BlockComment token each.
func Lex(filename, src string) ([]Token, error) {
	lex, err := rustLexer.LexString(filename, src)
	if err != nil {
		return nil, &ParseError{Pos: Position{Filename: filename, Line: 1, Column: 1}, Msg: err.Error()}
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, lexError(filename, err)
	}

	symbols := rustLexer.Symbols()
	blockOpen := symbols["BlockOpen"]
	blockClose := symbols["BlockClose"]

	tokens := make([]Token, 0, len(raw))
	depth := 0
	var commentStart Position
	for _, rt := range raw {
		if rt.EOF() {
			break
		}
		pos := Position{Filename: filename, Offset: rt.Pos.Offset, Line: rt.Pos.Line, Column: rt.Pos.Column}
		switch {
		case rt.Type == blockOpen:
			if depth == 0 {
				commentStart = pos
			}
			depth++
			continue
		case rt.Type == blockClose:
			depth--
			if depth == 0 {
				end := rt.Pos.Offset + len(rt.Value)
				tokens = append(tokens, Token{Kind: BlockComment, Text: src[commentStart.Offset:end], Pos: commentStart})
			}
			continue
		case depth > 0:
			continue
		}
		kind, ok := kindOf[rt.Type]
		if !ok {
			return nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("unexpected input %q", rt.Value)}
		}
		tokens = append(tokens, Token{Kind: kind, Text: rt.Value, Pos: pos})
	}
	if depth > 0 {
		return nil, &ParseError{Pos: commentStart, Msg: "unterminated block comment"}
	}
	return tokens, nil
}

// lexError converts a participle lexer failure into a ParseError, keeping
// the position when the error carries one.
func lexError(filename string, err error) error {
	pe := &ParseError{Pos: Position{Filename: filename, Line: 1, Column: 1}, Msg: err.Error()}
	if perr, ok := err.(interface{ Position() lexer.Position }); ok {
		p := perr.Position()
		pe.Pos = Position{Filename: filename, Offset: p.Offset, Line: p.Line, Column: p.Column}
		if msg, ok := err.(interface{ Message() string }); ok {
			pe.Msg = msg.Message()
		}
	}
	return pe
}

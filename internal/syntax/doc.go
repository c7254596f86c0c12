// Package syntax reads and writes Rust source at item granularity.
//
// Only module declarations are parsed structurally. Every other item
// (functions, types, impls, uses, macro invocations) is kept as the exact
// token sequence it was written with, so printing a tree reproduces the
// original code apart from indentation.
//
// The package has three layers:
//
//   - Lex tokenizes source with a participle stateful lexer. Trivia
//     (whitespace and comments) is kept; nested block comments and raw
//     strings are single tokens.
//   - Parse builds a File: inner attributes, then a sequence of Items, each
//     either a *Module or a *Verbatim.
//   - Print renders a File in one of two styles, StyleSource or
//     StyleTokens.
//
// Folder, FoldFile and WalkModule provide a generic depth-first rewrite of
// the item tree. Folds never modify their input; they return new nodes.
package syntax

// Package split relocates inline modules into files of their own.
//
// Given a crate root such as
//
//	pub mod interrupt { pub const X: u8 = 3; }
//	pub mod ac {
//	    pub mod ac2 { pub const Y: u8 = 1; }
//	}
//
// Split writes lib.rs declaring `pub mod interrupt;` and `pub mod ac;`,
// interrupt.rs, ac.rs declaring `pub mod ac2;`, and ac/ac2.rs. Module
// bodies are written before the file that declares them, and siblings in
// document order.
//
// Module names that are reserved device names on Windows (CON, NUL, COM1,
// ...) get a trailing underscore on disk. Their declaration then carries a
// `#[path = "..."]` attribute, and so does every module below them, since
// implicit lookup would use the unmodified names.
package split

// Package contextpack assembles conversation excerpts into a single text
// document suitable for pasting into another LLM session. A package is an
// instruction header, an optional <History> block of "{Role}: {content}"
// lines, and a <Task> block holding the prompt to continue from.
//
// System messages never appear in a package. The compression workflow reuses
// the same grammar with the raw history replaced by extracted key facts.
package contextpack

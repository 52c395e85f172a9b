// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser knows how to extract text
// content from a specific MIME type.
//
// Registry dispatches to them by MIME type; Default wires the built-in set.
package normalisers

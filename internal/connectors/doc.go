// Package connectors provides document sources for the knowledge base.
// The filesystem connector loads the documents directory for indexing and
// imports new files into it.
package connectors

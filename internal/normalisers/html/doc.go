// Package html provides a Normaliser implementation for HTML documents.
// It extracts readable text, dropping scripts, styles and markup, and keeps
// the page title as the first line.
package html

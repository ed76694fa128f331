// Package detect runs the language detection pass over pending queue items:
// sample extraction for media, remote detection, and source-variant
// auto-selection.
package detect

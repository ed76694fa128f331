// Package classify maps file extensions to media categories and derives the
// queue operation kind for enqueued files.
package classify

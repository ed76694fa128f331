// Package langmatch filters provider language lists against detected language
// codes and resolves which variant to submit for each queue item.
package langmatch

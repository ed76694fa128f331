// Package ipc exposes daemon control over a Unix domain socket using
// JSON-RPC, plus the client used by the CLI.
package ipc

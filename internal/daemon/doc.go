// Package daemon wires the queue store, detection pipeline, batch
// orchestrator, inbox watcher, and power monitor into one supervised process
// guarded by a file lock.
package daemon

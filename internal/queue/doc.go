// Package queue persists the batch queue in SQLite and exposes the item
// lifecycle operations the orchestrator and CLI rely on.
package queue

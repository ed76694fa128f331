// Package batch orchestrates sequential processing of the queue: one file at
// a time through transcription or translation, with pause/stop control,
// credit accounting, and run statistics.
package batch

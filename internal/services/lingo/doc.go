// Package lingo implements the HTTP client for the remote
// transcription/translation service: detection, transcription, translation
// submissions, status polling endpoints, and the per-model language catalog.
package lingo

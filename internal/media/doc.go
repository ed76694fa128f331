// Package media wraps ffmpeg and ffprobe for container inspection, audio
// sample extraction, and upload-format conversion.
package media

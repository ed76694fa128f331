package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"scribeq/internal/logging"
)

// Info summarizes the streams found in a media container.
type Info struct {
	HasVideo bool
	HasAudio bool
}

// commandRunner abstracts external process execution so tests can substitute
// fake ffmpeg/ffprobe invocations.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, truncateOutput(output))
	}
	return output, nil
}

func truncateOutput(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > 512 {
		text = text[len(text)-512:]
	}
	return text
}

// Service inspects media files and extracts audio with ffmpeg/ffprobe.
type Service struct {
	ffmpegBin  string
	ffprobeBin string
	run        commandRunner
	logger     *slog.Logger
}

// NewService creates a media service using the given binaries.
func NewService(ffmpegBin, ffprobeBin string, logger *slog.Logger) *Service {
	return &Service{
		ffmpegBin:  ffmpegBin,
		ffprobeBin: ffprobeBin,
		run:        runCommand,
		logger:     logging.NewComponentLogger(logger, "media"),
	}
}

// Available reports whether the configured binaries can be found on PATH.
func (s *Service) Available() error {
	for _, bin := range []string{s.ffmpegBin, s.ffprobeBin} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("required binary %q not found: %w", bin, err)
		}
	}
	return nil
}

type probeStream struct {
	CodecType string `json:"codec_type"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

// Probe inspects a file with ffprobe and reports which stream types it holds.
func (s *Service) Probe(ctx context.Context, path string) (Info, error) {
	output, err := s.run(ctx, s.ffprobeBin,
		"-v", "error",
		"-show_streams",
		"-of", "json",
		path,
	)
	if err != nil {
		return Info{}, fmt.Errorf("probe %s: %w", filepath.Base(path), err)
	}

	var probed probeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return Info{}, fmt.Errorf("parse ffprobe output for %s: %w", filepath.Base(path), err)
	}

	var info Info
	for _, stream := range probed.Streams {
		switch stream.CodecType {
		case "video":
			info.HasVideo = true
		case "audio":
			info.HasAudio = true
		}
	}
	return info, nil
}

// ExtractAudioSample writes a bounded mono 16 kHz WAV sample of the source's
// audio track, suitable for language detection uploads.
func (s *Service) ExtractAudioSample(ctx context.Context, source, dest string, durationSeconds int) error {
	if durationSeconds <= 0 {
		return fmt.Errorf("sample duration must be positive, got %d", durationSeconds)
	}
	args := []string{
		"-y",
		"-i", source,
		"-vn",
		"-t", fmt.Sprintf("%d", durationSeconds),
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		dest,
	}
	s.logger.Debug("extracting audio sample",
		logging.String("source", filepath.Base(source)),
		logging.Int("duration_seconds", durationSeconds))
	if _, err := s.run(ctx, s.ffmpegBin, args...); err != nil {
		return fmt.Errorf("extract audio sample from %s: %w", filepath.Base(source), err)
	}
	return nil
}

// ExtractAudio writes the complete audio track of a video file as a mono
// 16 kHz WAV, the upload format the transcription service accepts for any
// container.
func (s *Service) ExtractAudio(ctx context.Context, source, dest string) error {
	args := []string{
		"-y",
		"-i", source,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		dest,
	}
	s.logger.Debug("extracting audio track", logging.String("source", filepath.Base(source)))
	if _, err := s.run(ctx, s.ffmpegBin, args...); err != nil {
		return fmt.Errorf("extract audio from %s: %w", filepath.Base(source), err)
	}
	return nil
}

// uploadableAudio lists audio containers the remote service accepts directly.
// Anything else is converted to WAV before upload.
var uploadableAudio = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".flac": {},
	".ogg":  {},
}

// NeedsConversion reports whether an audio file must be converted before it
// can be uploaded to the remote service.
func NeedsConversion(path string) bool {
	_, ok := uploadableAudio[strings.ToLower(filepath.Ext(path))]
	return !ok
}

// ConvertAudio rewrites an audio file into mono 16 kHz WAV for upload.
func (s *Service) ConvertAudio(ctx context.Context, source, dest string) error {
	args := []string{
		"-y",
		"-i", source,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		dest,
	}
	s.logger.Debug("converting audio for upload", logging.String("source", filepath.Base(source)))
	if _, err := s.run(ctx, s.ffmpegBin, args...); err != nil {
		return fmt.Errorf("convert audio %s: %w", filepath.Base(source), err)
	}
	return nil
}

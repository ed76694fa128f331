package media

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"scribeq/internal/logging"
)

func newFakeService(run commandRunner) *Service {
	s := NewService("ffmpeg", "ffprobe", logging.NewNop())
	s.run = run
	return s
}

func TestProbeParsesStreamTypes(t *testing.T) {
	s := newFakeService(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffprobe" {
			t.Errorf("unexpected binary %q", name)
		}
		if args[len(args)-1] != "/media/movie.mkv" {
			t.Errorf("unexpected target %v", args)
		}
		return []byte(`{"streams":[{"codec_type":"video"},{"codec_type":"audio"},{"codec_type":"subtitle"}]}`), nil
	})

	info, err := s.Probe(context.Background(), "/media/movie.mkv")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !info.HasVideo || !info.HasAudio {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestProbeAudioOnly(t *testing.T) {
	s := newFakeService(func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"streams":[{"codec_type":"audio"}]}`), nil
	})

	info, err := s.Probe(context.Background(), "/media/song.mp3")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.HasVideo || !info.HasAudio {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestProbeSurfacesCommandFailure(t *testing.T) {
	s := newFakeService(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("ffprobe: exit status 1")
	})

	if _, err := s.Probe(context.Background(), "/media/broken.mkv"); err == nil {
		t.Fatal("expected probe failure")
	}
}

func TestExtractAudioSampleBoundsDuration(t *testing.T) {
	var captured []string
	s := newFakeService(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffmpeg" {
			t.Errorf("unexpected binary %q", name)
		}
		captured = args
		return nil, nil
	})

	if err := s.ExtractAudioSample(context.Background(), "/media/movie.mkv", "/tmp/sample.wav", 240); err != nil {
		t.Fatalf("ExtractAudioSample: %v", err)
	}
	joined := strings.Join(captured, " ")
	if !strings.Contains(joined, "-t "+strconv.Itoa(240)) {
		t.Fatalf("sample should be duration-bounded: %v", captured)
	}
	if !strings.Contains(joined, "-ar 16000") || !strings.Contains(joined, "-ac 1") {
		t.Fatalf("sample should be mono 16 kHz: %v", captured)
	}
	if captured[len(captured)-1] != "/tmp/sample.wav" {
		t.Fatalf("destination should be last: %v", captured)
	}
}

func TestExtractAudioSampleRejectsNonPositiveDuration(t *testing.T) {
	s := newFakeService(func(context.Context, string, ...string) ([]byte, error) {
		t.Error("no command should run")
		return nil, nil
	})
	if err := s.ExtractAudioSample(context.Background(), "a", "b", 0); err == nil {
		t.Fatal("expected duration validation error")
	}
}

func TestExtractAudioDropsVideoStream(t *testing.T) {
	var captured []string
	s := newFakeService(func(_ context.Context, _ string, args ...string) ([]byte, error) {
		captured = args
		return nil, nil
	})

	if err := s.ExtractAudio(context.Background(), "/media/movie.mkv", "/tmp/audio.wav"); err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}
	joined := strings.Join(captured, " ")
	if !strings.Contains(joined, "-vn") {
		t.Fatalf("video must be stripped: %v", captured)
	}
	if strings.Contains(joined, "-t ") {
		t.Fatalf("full extraction must not be duration-bounded: %v", captured)
	}
}

func TestNeedsConversion(t *testing.T) {
	cases := map[string]bool{
		"/media/song.mp3":  false,
		"/media/song.FLAC": false,
		"/media/song.wav":  false,
		"/media/song.wma":  true,
		"/media/song.aiff": true,
	}
	for path, want := range cases {
		if got := NeedsConversion(path); got != want {
			t.Errorf("NeedsConversion(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestTruncateOutputKeepsTail(t *testing.T) {
	long := strings.Repeat("x", 600) + "tail"
	got := truncateOutput([]byte(long))
	if len(got) != 512 {
		t.Fatalf("len = %d", len(got))
	}
	if !strings.HasSuffix(got, "tail") {
		t.Fatalf("tail should survive truncation: %q", got[len(got)-10:])
	}
}

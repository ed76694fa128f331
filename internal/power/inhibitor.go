package power

import (
	"context"
	"log/slog"
	"os/exec"
	"sync"

	"scribeq/internal/logging"
)

// Inhibitor keeps the system awake while a batch run is in flight. Acquisition
// is best-effort; a run proceeds even when the lock cannot be taken.
type Inhibitor interface {
	// Inhibit takes the sleep lock and returns a release function. Release is
	// idempotent.
	Inhibit(ctx context.Context, why string) (release func(), err error)
}

// NewInhibitor returns a systemd-inhibit backed inhibitor when the binary is
// available, otherwise a no-op implementation.
func NewInhibitor(logger *slog.Logger) Inhibitor {
	log := logging.NewComponentLogger(logger, "power")
	if _, err := exec.LookPath("systemd-inhibit"); err != nil {
		log.Debug("systemd-inhibit not found, sleep prevention disabled")
		return NoopInhibitor{}
	}
	return &systemdInhibitor{logger: log}
}

// NoopInhibitor satisfies Inhibitor without taking any lock.
type NoopInhibitor struct{}

func (NoopInhibitor) Inhibit(context.Context, string) (func(), error) {
	return func() {}, nil
}

// systemdInhibitor holds a sleep lock by keeping a systemd-inhibit child
// process alive for the duration of the run.
type systemdInhibitor struct {
	logger *slog.Logger
}

func (s *systemdInhibitor) Inhibit(ctx context.Context, why string) (func(), error) {
	inhibitCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(inhibitCtx, "systemd-inhibit",
		"--what=sleep:idle",
		"--who=scribeq",
		"--why="+why,
		"sleep", "infinity",
	)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	var once sync.Once
	release := func() {
		once.Do(func() {
			cancel()
			<-done
			s.logger.Debug("sleep lock released")
		})
	}
	s.logger.Debug("sleep lock acquired", logging.String("why", why))
	return release, nil
}

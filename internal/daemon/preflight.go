package daemon

import (
	"golang.org/x/sys/unix"

	"scribeq/internal/logging"
)

// minStagingBytes is the free-space floor below which staging extraction is
// likely to fail mid-run.
const minStagingBytes = 1 << 30 // 1 GiB

// preflight checks external dependencies and disk headroom at startup.
// Findings are logged, never fatal; the daemon can still queue files and the
// failures surface per-item later.
func (d *Daemon) preflight() {
	if err := d.mediaSvc.Available(); err != nil {
		d.logger.Warn("media tools unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install ffmpeg to enable media transcription"),
			logging.String(logging.FieldImpact, "audio extraction and detection sampling will fail"))
	}

	if free, err := freeBytes(d.cfg.Paths.StagingDir); err != nil {
		d.logger.Warn("could not check staging free space",
			logging.String("dir", d.cfg.Paths.StagingDir),
			logging.Error(err))
	} else if free < minStagingBytes {
		d.logger.Warn("staging directory is low on space",
			logging.String("dir", d.cfg.Paths.StagingDir),
			logging.Int64("free_bytes", int64(free)),
			logging.String(logging.FieldImpact, "audio extraction may fail mid-run"))
	}

	if !d.client.Authenticated() {
		d.logger.Warn("no API token configured",
			logging.String(logging.FieldErrorHint, "set api.token or api.token_file in the config"),
			logging.String(logging.FieldImpact, "detection and batch runs are disabled until authenticated"))
	}
}

func freeBytes(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

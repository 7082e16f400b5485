// Package logging configures the launcher logger.
//
// The launcher logs to stderr and, when a log directory is configured,
// mirrors everything into <log_dir>/biobeamer-launcher.log so unattended
// runs leave a durable trace. The transfer password must never be passed to
// this logger; see launcher.Invocation for the redaction contract.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// FileName is the launcher's own log file under the configured log_dir.
const FileName = "biobeamer-launcher.log"

// New builds the launcher logger. logDir may be empty (console only). The
// returned closer flushes and closes the log file, if one was opened.
func New(logDir string, verbose bool) (*log.Logger, func() error, error) {
	var w io.Writer = os.Stderr
	closer := func() error { return nil }

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir %s: %w", logDir, err)
		}
		f, err := os.OpenFile(filepath.Join(logDir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open launcher log: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = f.Close
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "biobeamer-launcher",
		ReportTimestamp: true,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger, closer, nil
}

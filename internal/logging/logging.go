// SPDX-License-Identifier: EPL-2.0

// Package logging builds the structured loggers used outside the audio
// path. Nothing that runs per audio block logs.
package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// New returns a key/value logger writing to w at the named level
// ("debug", "info", "warn", "error"). An empty level means info.
func New(w io.Writer, level string, prefix string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		lvl = parsed
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	}), nil
}

// Discard returns a logger that drops everything. It is the default for
// library types constructed without a logger.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/torosent/crankbench/internal/config"
)

// Setup configures the global logger and returns it. Logs go to w, or
// stderr when w is nil, so that stdout stays free for reports.
func Setup(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	level := zerolog.InfoLevel
	if raw := strings.TrimSpace(cfg.Level); raw != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return zerolog.Logger{}, err
		}
		level = parsed
	}

	var out io.Writer
	if strings.ToLower(cfg.Format) == "json" {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		out = w
	} else {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	log.Logger = logger
	return logger, nil
}

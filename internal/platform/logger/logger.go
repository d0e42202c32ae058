// Package logger builds the service's slog logger.
//
//	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
//	log.InfoContext(ctx, "consent saved", "request_id", requestID)
//
// Participant identifiers are redacted by attribute name before any handler
// sees them, so call sites may log a submission field without scrubbing it.
package logger

import (
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/m-mizutani/masq"
)

// PIIFields are attribute names whose values never reach log output.
var PIIFields = []string{
	"identity",
	"confirm_identity",
	"first_name",
	"last_name",
	"initials",
	"dob",
	"authorization",
}

var (
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`)
	jwtPattern    = regexp.MustCompile(`[a-zA-Z0-9\-_]{10,}\.[a-zA-Z0-9\-_]{10,}\.[a-zA-Z0-9\-_]{10,}`)
)

// New returns a JSON (or, for format "text", text) slog logger at the given
// level. Unknown levels fall back to info.
func New(level, format string, w io.Writer) *slog.Logger {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl == slog.LevelDebug,
		ReplaceAttr: redactAttr(),
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func redactAttr() func([]string, slog.Attr) slog.Attr {
	opts := make([]masq.Option, 0, len(PIIFields)+2)
	for _, name := range PIIFields {
		opts = append(opts, masq.WithFieldName(name))
	}
	opts = append(opts,
		masq.WithRegex(bearerPattern),
		masq.WithRegex(jwtPattern),
	)
	return masq.New(opts...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

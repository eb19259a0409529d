package logger

import (
	"errors"
	"log/slog"
	"time"
)

// Status maps error to a unified status string for logs.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Took returns rounded duration since start for compact logging.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds duration to the nearest millisecond for consistent logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// ErrAttrs returns err and, when the chain carries one, its stable code.
func ErrAttrs(err error) []slog.Attr {
	if err == nil {
		return nil
	}
	attrs := []slog.Attr{slog.String("err", err.Error())}
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		attrs = append(attrs, slog.String("err_code", coded.Code()))
	}
	return attrs
}

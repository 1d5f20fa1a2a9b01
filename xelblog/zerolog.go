// Package xelblog adapts github.com/rs/zerolog to the xelb.Logger
// interface so callers can attach structured, leveled tracing to the
// marshaller without the core engine importing a logging library
// itself.
package xelblog

import "github.com/rs/zerolog"

// Zerolog adapts a zerolog.Logger to xelb.Logger.
type Zerolog struct {
	Log zerolog.Logger
}

// NewZerolog wraps log for use as an xelb.Logger.
func NewZerolog(log zerolog.Logger) Zerolog {
	return Zerolog{Log: log}
}

func (z Zerolog) Debugf(format string, args ...any) {
	z.Log.Debug().Msgf(format, args...)
}

func (z Zerolog) Warnf(format string, args ...any) {
	z.Log.Warn().Msgf(format, args...)
}

package xelb

// Logger is the minimal diagnostic sink the engine can be given. It is
// deliberately narrow — just the two levels the engine actually emits —
// so any structured logger in the ecosystem can satisfy it with a
// one-line adapter (see package xelblog for a github.com/rs/zerolog
// adapter).
//
// No Logger is attached by default: marshalling and unmarshalling do not
// touch it unless a caller opts in via WithLogger, keeping the engine's
// default behavior free of I/O as spec §5 requires.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

package xelb

import (
	"errors"

	"github.com/emacs-exwm/xelb/wire"
)

// Sentinel errors, one per entry in the failure taxonomy. Call sites wrap
// these with fmt.Errorf("...: %w", ErrX) so callers classify failures
// with errors.Is rather than string matching.
var (
	ErrUnsupportedType      = errors.New("xelb: unsupported field type")
	ErrMissingField         = errors.New("xelb: missing required field")
	ErrSizeMismatch         = errors.New("xelb: marshalled length does not match declared size")
	ErrListSizeMismatch     = errors.New("xelb: list size expression does not match stored length")
	ErrDeclaredSizeTooSmall = errors.New("xelb: declared size smaller than parsed length")
	ErrInputTooShort        = errors.New("xelb: declared size exceeds remaining input")
	ErrUnionOverflow        = errors.New("xelb: union member exceeds declared size")
	ErrBadSizeExpression    = errors.New("xelb: size expression evaluated to a negative or invalid value")

	// ErrBadFloat is re-exported from package wire so callers of either
	// package can classify a float-width failure with a single sentinel.
	ErrBadFloat = wire.ErrBadFloat
)

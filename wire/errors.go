package wire

import "errors"

// ErrBadFloat is raised when a byte slice handed to a float decoder does
// not match the bit width of the target IEEE-754 format.
var ErrBadFloat = errors.New("wire: bad float bit width")

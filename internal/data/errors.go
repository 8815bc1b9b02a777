package data

import (
	"errors"
	"fmt"
)

// ErrInvalid wraps every validation failure so callers can tell bad data
// apart from I/O errors.
var ErrInvalid = errors.New("invalid data")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

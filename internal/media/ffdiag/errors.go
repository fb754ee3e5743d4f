package ffdiag

import (
	"errors"

	"tsutils/internal/services"
)

var errMalformed = services.ErrParse

// IsParseError reports whether err came from a malformed diagnostic token.
func IsParseError(err error) bool {
	return errors.Is(err, services.ErrParse)
}

package normalize

import "errors"

// Sentinel kinds for this package.
var (
	ErrUnknownDirection = errors.New("unknown metric direction")
)

package quantile

import (
	"errors"
	"fmt"

	"github.com/okian/transformdiag/internal/domain/record"
)

// Sentinel kinds for invalid quantile requests.
var (
	ErrNoGroupFields = errors.New("at least one group field is required")
	ErrInvalidLevel  = errors.New("quantile level must be within [0, 1]")
	// ErrNonFinite is a data problem, so it also matches record.ErrInvalidNumericValue.
	ErrNonFinite = fmt.Errorf("quantile is not a finite number: %w", record.ErrInvalidNumericValue)
)

package record

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the data core. The typed errors below match them
// through errors.Is so callers can branch on the kind alone.
var (
	ErrMissingField           = errors.New("missing field")
	ErrInvalidNumericValue    = errors.New("invalid numeric value")
	ErrEmptyGroup             = errors.New("empty group")
	ErrZeroOrMissingBestValue = errors.New("zero or missing best value")
)

// MissingFieldError reports a referenced field that a record does not carry.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// Is reports whether target is ErrMissingField.
func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// InvalidNumericValueError reports a value that does not parse to a finite number.
type InvalidNumericValueError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidNumericValueError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("field %q: empty value is not numeric", e.Field)
	}
	return fmt.Sprintf("field %q: value %q is not a finite number", e.Field, e.Value)
}

// Is reports whether target is ErrInvalidNumericValue.
func (e *InvalidNumericValueError) Is(target error) bool { return target == ErrInvalidNumericValue }

func (e *InvalidNumericValueError) Unwrap() error { return e.Err }

// EmptyGroupError reports a quantile request over zero values.
type EmptyGroupError struct {
	Key   GroupKey
	Field string
}

func (e *EmptyGroupError) Error() string {
	if e.Key.Len() == 0 {
		return fmt.Sprintf("no values for field %q", e.Field)
	}
	return fmt.Sprintf("group %s has no values for field %q", e.Key, e.Field)
}

// Is reports whether target is ErrEmptyGroup.
func (e *EmptyGroupError) Is(target error) bool { return target == ErrEmptyGroup }

// ZeroOrMissingBestValueError reports a normalization denominator that is
// zero, absent, or so small that a ratio to it is not finite.
type ZeroOrMissingBestValueError struct {
	Key     GroupKey
	Metric  string
	Missing bool
	// Best is set when the denominator is nonzero but a ratio overflowed.
	Best float64
}

func (e *ZeroOrMissingBestValueError) Error() string {
	if e.Missing {
		return fmt.Sprintf("group %s has no best value for %q", e.Key, e.Metric)
	}
	if e.Best != 0 {
		return fmt.Sprintf("group %s: ratio to best value %g of %q is not finite", e.Key, e.Best, e.Metric)
	}
	return fmt.Sprintf("group %s has a best value of zero for %q", e.Key, e.Metric)
}

// Is reports whether target is ErrZeroOrMissingBestValue.
func (e *ZeroOrMissingBestValueError) Is(target error) bool {
	return target == ErrZeroOrMissingBestValue
}

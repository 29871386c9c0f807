package chart

import "errors"

// Sentinel kinds for chart errors.
var (
	ErrInvalidOptions = errors.New("invalid chart options")
)

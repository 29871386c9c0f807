package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrLoad            = errors.New("load dataset failed")
	ErrEmptyDataset    = errors.New("dataset has no header row")
	ErrMalformedHeader = errors.New("malformed header")
	ErrMalformedRow    = errors.New("malformed row")
	ErrNotLoaded       = errors.New("no dataset loaded")
)

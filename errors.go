package trieidx

import (
	"errors"
)

var (
	// ErrNotReady is returned by Search and Export before an index has been
	// loaded, or after Reset.
	ErrNotReady = errors.New("trieidx: index not ready")

	// ErrLoadFailed wraps the cause of a failed load. Search returns it when
	// the last load failed and no earlier index is available.
	ErrLoadFailed = errors.New("trieidx: load failed")

	// ErrInvalidDataset is returned by Load for a dataset without an id or
	// without search fields.
	ErrInvalidDataset = errors.New("trieidx: invalid dataset")
)

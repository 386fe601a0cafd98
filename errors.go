package accessor

import "errors"

var (
	// ErrNilAccessor is returned by constructors given a nil backing accessor.
	ErrNilAccessor = errors.New("accessor: backing accessor is required")

	// ErrNotSupported is returned by Funcs/AsyncFuncs when the requested half is missing.
	ErrNotSupported = errors.New("accessor: operation not supported")
)

package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Key.Read when the key is missing and no Fallback is set.
	ErrNotFound = errors.New("store: key not found")

	// ErrRejected is returned by Key.Write when the provider refused the value under pressure.
	ErrRejected = errors.New("store: write rejected by provider")

	ErrNilProvider = errors.New("store: provider is required")
	ErrNilCodec    = errors.New("store: codec is required")
	ErrEmptyKey    = errors.New("store: key is required")
)

// CodecError reports a value that could not be converted to or from bytes.
type CodecError struct {
	Key string
	Op  string // "encode" or "decode"
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("store: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

package lsm

import "errors"

var (
	// ErrOversizedField is returned when a key or value exceeds MaxFieldSize
	// bytes.
	ErrOversizedField = errors.New("lsm: key or value exceeds max field size")

	// ErrEmptyKey is returned when a key of length zero is written. The data
	// model requires 1 <= len(key); zero-length values are legal.
	ErrEmptyKey = errors.New("lsm: key must not be empty")

	// ErrTruncatedRecord is returned when a length prefix was read but its
	// body could not be filled from the stream.
	ErrTruncatedRecord = errors.New("lsm: truncated record")
)

package lsm

import "bytes"

// Tombstone is the reserved value that marks a key as logically deleted.
// Any value byte-equal to it is indistinguishable from a delete; callers
// must avoid writing this exact value for legitimate data.
var Tombstone = []byte{
	0xb3, 0xd2, 0x9b, 0x10, 0x6e, 0xe5, 0x68, 0xca,
	0x48, 0x7c, 0xd1, 0x0d, 0x55, 0xc0, 0x38, 0x47,
	0xef, 0x0a, 0x74, 0xc7, 0xba, 0xcd, 0xa3, 0x8f,
	0x03, 0x2b, 0x7d, 0x10, 0x9d, 0x16, 0x2f, 0xf4,
}

// IsTombstone reports whether value is the deletion sentinel.
func IsTombstone(value []byte) bool {
	return bytes.Equal(value, Tombstone)
}

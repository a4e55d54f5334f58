package common

import "errors"

// Error kinds surfaced by the tool. Callers wrap them with context and test
// with errors.Is.
var (
	ErrFormat          = errors.New("malformed on-disk structure")
	ErrNotFound        = errors.New("no such file or directory")
	ErrUnsupportedPath = errors.New("only files in the root or one subdirectory deep are supported")
	ErrNameTooLong     = errors.New("file name too long")
	ErrAlreadyExists   = errors.New("file exists")
	ErrNoFreeInode     = errors.New("no free inodes available")
	ErrNoFreeZone      = errors.New("no free zones available")
	ErrDirectoryFull   = errors.New("no space left in directory")
	ErrTooManyLinks    = errors.New("too many links")
	ErrInconsistent    = errors.New("image left inconsistent")
	ErrUsage           = errors.New("bad usage")
)

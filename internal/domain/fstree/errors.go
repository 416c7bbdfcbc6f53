package fstree

import "errors"

var (
	ErrNilEntry        = errors.New("nil entry")
	ErrInvalidName     = errors.New("invalid entry name")
	ErrAlreadyAttached = errors.New("entry already has a parent")
	ErrNegativeSize    = errors.New("file size must not be negative")
	ErrCycle           = errors.New("directory cannot contain itself")
	ErrKindConflict    = errors.New("entry exists with a different kind")
	ErrSizeOverflow    = errors.New("directory size overflows int64")
)

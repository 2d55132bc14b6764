package vfs

import "errors"

// Domain errors returned by coordinator operations. Callers match with
// errors.Is; every error reaching a caller is also announced on the event
// bus as events.Error first.
var (
	ErrNotFound          = errors.New("vfs: no such file or directory")
	ErrAlreadyExists     = errors.New("vfs: path already exists")
	ErrInvalidType       = errors.New("vfs: invalid entry type for operation")
	ErrDirectoryNotEmpty = errors.New("vfs: directory not empty")
	ErrNotInitialized    = errors.New("vfs: filesystem not initialized")
	ErrBusy              = errors.New("vfs: conflicting subtree operation in flight")
)

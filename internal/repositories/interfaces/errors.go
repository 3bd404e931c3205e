// Package interfaces defines the repository contracts consumed by the service
// layer, together with the sentinel errors implementations must return so
// services can react without knowing the storage technology.
package interfaces

import "errors"

// ErrNotFound is returned when the requested record does not exist, or when a
// conditional update matched no record (for example a token verification that
// lost the race against the cleanup sweep).
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a store-level uniqueness constraint rejects a
// write. It is the authoritative guard behind the services' pre-checks.
var ErrDuplicate = errors.New("duplicate record")

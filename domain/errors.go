package domain

import "errors"

// ErrNotFound is returned by the store when no row matches.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by the store when a unique key is already taken.
var ErrConflict = errors.New("conflict")

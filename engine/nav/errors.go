package nav

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by route planning. NotFound, NoRoute, and
// BadRequest are expected client-facing outcomes; StoreUnavailable means
// the graph could not be rebuilt and must never be mistaken for "no path
// exists".
var (
	ErrNotFound         = errors.New("node not found")
	ErrNoRoute          = errors.New("no route between nodes")
	ErrBadRequest       = errors.New("bad request")
	ErrStoreUnavailable = errors.New("graph store unavailable")
)

// RouteError wraps an error kind with the ids involved.
type RouteError struct {
	Op      string
	StartID string
	EndID   string
	Wrapped error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("nav: %s: %s (start=%q, end=%q)", e.Op, e.Wrapped, e.StartID, e.EndID)
}

func (e *RouteError) Unwrap() error { return e.Wrapped }

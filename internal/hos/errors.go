package hos

import "errors"

// ErrInvalidInput marks scheduling requests that cannot produce a schedule,
// such as a non-positive driving duration.
var ErrInvalidInput = errors.New("invalid scheduling input")

// RouteError wraps a failure from the route-calculation collaborator. The
// underlying cause is preserved for errors.Is/As.
type RouteError struct {
	Err error
}

func (e *RouteError) Error() string {
	return "route-based trip scheduling failed: " + e.Err.Error()
}

func (e *RouteError) Unwrap() error { return e.Err }

// Package browse implements the stateful audit-log browsing engine behind the
// admin console: filter resolution, sort and pagination state, a memoizing
// detail cache, a navigation guard, and the dual-sequence modal state machine.
// All state is owned by an explicitly constructed Session so nothing leaks
// across views and tests need no global resets.
package browse

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited marks a 429 from the admin API. Surfaced to the
	// operator as a "slow down" notice.
	ErrRateLimited = errors.New("rate limited")
	// ErrNotFound marks a detail request for an id that is no longer
	// resolvable.
	ErrNotFound = errors.New("log entry not found")
	// ErrValidation marks filter input that cannot be resolved, e.g. an
	// unknown username. Swallowed during incremental typing, surfaced on
	// submit.
	ErrValidation = errors.New("filter input invalid")
	// ErrBusy is returned when a navigation action is dropped because a
	// prior navigation fetch is still in flight. Callers treat it as a
	// no-op, never as a queue signal.
	ErrBusy = errors.New("navigation in flight")
	// ErrStale is returned when a query response arrives after a newer
	// query has been issued. The response is discarded unapplied.
	ErrStale = errors.New("superseded query")
)

// NetworkError wraps a transport failure or an unexpected status from the
// admin API.
type NetworkError struct {
	Status int
	Op     string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("browse: %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("browse: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

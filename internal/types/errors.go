// README: Error taxonomy shared by the pricing core and its collaborators.
package types

import "errors"

var (
	// ErrInvalidInput is returned for malformed or out-of-range request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a collaborator has no usable result.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable is returned when a collaborator is unreachable or answers non-200.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

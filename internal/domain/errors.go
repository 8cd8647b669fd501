package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested entity, remote document or
// local slot does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing title, checkout before checkin).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidJoinCode is returned for a join code that is not exactly six
// characters after trimming. It wraps ErrValidation so callers that only
// care about "bad input" can match either.
var ErrInvalidJoinCode = fmt.Errorf("%w: join code must be exactly %d characters", ErrValidation, JoinCodeLength)

// ErrCodeTaken is returned by a remote store when a document already exists
// under the code passed to Create.
var ErrCodeTaken = errors.New("join code already in use")

// ErrCodeSpaceExhausted is returned when no free join code was found within
// the configured number of attempts.
var ErrCodeSpaceExhausted = errors.New("no free join code found")

// ErrRemoteUnavailable is returned when an operation needs the remote store
// and none is configured.
// Handlers should map this to HTTP 503.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// ErrSessionState is returned when an operation is not valid in the current
// session state, e.g. creating a trip while already connected.
// Handlers should map this to HTTP 409.
var ErrSessionState = errors.New("operation not allowed in current session state")

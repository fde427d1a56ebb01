package errors

import (
	"errors"
)

// Failure classes surfaced to users as degraded responses, never as crashes.
var (
	ErrStoreUnavailable      = errors.New("store unavailable")
	ErrMembershipCheckFailed = errors.New("membership check failed")
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrMalformedPayload      = errors.New("malformed payload")
)

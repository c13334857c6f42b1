package gateway

import "errors"

// ErrTooManyRequests is returned by AdmissionGuard.Allow once the caller's
// anonymous rate-limit budget is exhausted.
var ErrTooManyRequests = errors.New("gateway: too many requests")

// ErrBadRequest is returned for malformed request bodies, including image
// requests carrying zero files.
var ErrBadRequest = errors.New("gateway: bad request")

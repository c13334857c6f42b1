package gateway

import (
	"errors"
	"net/http"

	"github.com/cruxauth/authsvc/broker"
	"github.com/cruxauth/authsvc/identity"
	"github.com/cruxauth/authsvc/vision"
)

// statusFor maps an identity/gateway error to the HTTP status it should
// produce. Token-flow failures never reach here: they are carried
// in-band in the response body rather than surfaced as errors.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, vision.ErrEmptyImage):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrConflict),
		errors.Is(err, identity.ErrUserExists),
		errors.Is(err, identity.ErrAlreadyVerified):
		return http.StatusConflict
	case errors.Is(err, identity.ErrInvalidKey),
		errors.Is(err, identity.ErrNoSuchUser),
		errors.Is(err, identity.ErrBadPassword):
		return http.StatusConflict
	case errors.Is(err, identity.ErrUpstreamUnavailable), errors.Is(err, broker.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

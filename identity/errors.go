package identity

import "errors"

// Error kinds returned across the Identity Service's five operations.
// Token-flow failures (refresh-token, validate-token) are deliberately
// NOT surfaced through these — those two operations return
// success-shaped result structs carrying {is_valid:false, message}
// instead, since a malformed or expired token is routine input, not an
// exceptional condition.
var (
	ErrValidation          = errors.New("validation")
	ErrConflict            = errors.New("conflict")
	ErrInvalidKey          = errors.New("invalid_key")
	ErrRateLimited         = errors.New("rate_limited")
	ErrUpstreamUnavailable = errors.New("upstream_unavailable")

	// ErrUserExists is a Conflict specialization used by sign-up.
	ErrUserExists = errors.New("user with such email already exists")
	// ErrNoSuchUser is a Conflict specialization used by sign-in/verify-user.
	ErrNoSuchUser = errors.New("no such user")
	// ErrBadPassword is a Conflict specialization used by sign-in.
	ErrBadPassword = errors.New("bad password")
	// ErrAlreadyVerified is a Conflict specialization used by verify-user.
	ErrAlreadyVerified = errors.New("already verified")
)

// Code is a stable, transport-safe identifier for one of the Identity
// Service's sentinel errors, carried in broker.Reply so the gateway side
// of the RPC boundary can reconstruct the original error instead of
// collapsing every failure to a generic unavailable error.
type Code string

const (
	CodeValidation          Code = "validation"
	CodeConflict            Code = "conflict"
	CodeUserExists          Code = "user_exists"
	CodeNoSuchUser          Code = "no_such_user"
	CodeBadPassword         Code = "bad_password"
	CodeAlreadyVerified     Code = "already_verified"
	CodeInvalidKey          Code = "invalid_key"
	CodeRateLimited         Code = "rate_limited"
	CodeUpstreamUnavailable Code = "upstream_unavailable"
)

var sentinelsByCode = map[Code]error{
	CodeValidation:          ErrValidation,
	CodeConflict:            ErrConflict,
	CodeUserExists:          ErrUserExists,
	CodeNoSuchUser:          ErrNoSuchUser,
	CodeBadPassword:         ErrBadPassword,
	CodeAlreadyVerified:     ErrAlreadyVerified,
	CodeInvalidKey:          ErrInvalidKey,
	CodeRateLimited:         ErrRateLimited,
	CodeUpstreamUnavailable: ErrUpstreamUnavailable,
}

// ErrorCode classifies err as one of the sentinel errors above, returning
// "" if err matches none of them (a store/cache/codec failure wrapped by
// errUpstream still classifies as CodeUpstreamUnavailable since it joins
// ErrUpstreamUnavailable).
func ErrorCode(err error) Code {
	for code, sentinel := range sentinelsByCode {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ""
}

// ErrorForCode reverses ErrorCode, returning the sentinel error code
// identifies, or nil if code is empty or unrecognized.
func ErrorForCode(code Code) error {
	return sentinelsByCode[code]
}

// tokenMessage maps the internal failure classification of refresh-token
// and validate-token to stable, caller-facing text across the HTTP/broker
// boundary.
func tokenMessage(kind tokenFailureKind) string {
	switch kind {
	case failureNone:
		return "valid"
	case failureExpired:
		return "Token expired"
	case failureMalformed, failureSignatureInvalid:
		return "Invalid token"
	case failureNotRefreshToken:
		return "Provided token is not a refresh token"
	case failureNotAccessToken:
		return "Provided token is not an access token"
	default:
		return "Token verification failed"
	}
}

type tokenFailureKind int

const (
	failureNone tokenFailureKind = iota
	failureExpired
	failureMalformed
	failureSignatureInvalid
	failureNotRefreshToken
	failureNotAccessToken
)

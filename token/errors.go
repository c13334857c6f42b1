package token

import "errors"

var (
	// ErrTokenExpired is returned by Parse when the token's exp claim has passed.
	ErrTokenExpired = errors.New("token: expired")
	// ErrTokenMalformed is returned by Parse for any structurally invalid token.
	ErrTokenMalformed = errors.New("token: malformed")
	// ErrSignatureInvalid is returned by Parse when the signature does not verify.
	ErrSignatureInvalid = errors.New("token: signature invalid")
)

package security

import "errors"

// Verification failures the transport layer maps onto 401 responses.
// ErrClaimsMissing means the signature checked out but the token carries
// no member id, which points at a misconfigured portal rather than a
// hostile caller.
var (
	ErrTokenInvalid  = errors.New("token invalid")
	ErrTokenExpired  = errors.New("token expired")
	ErrClaimsMissing = errors.New("token claims missing")
)

package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUnexpectedEnvelope = errors.New("unexpected response envelope")
	ErrMalformedRecord    = errors.New("malformed market record")
	ErrInvalidQuery       = errors.New("invalid query parameter")
)

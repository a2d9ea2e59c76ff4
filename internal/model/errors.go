package model

import "errors"

var (
	// ErrInvalidInput marks malformed or out-of-domain arguments. Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPriceUnavailable means every discovery strategy was exhausted. It is an
	// explicit "unknown", distinct from a price of zero.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrUpstreamTimeout means a chain query exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrUpstreamError means the chain query capability failed.
	ErrUpstreamError = errors.New("upstream error")
)

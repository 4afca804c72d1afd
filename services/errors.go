package services

import "errors"

// Caller-visible error kinds. Controllers map these onto HTTP status codes;
// everything else surfaces as a 500 and goes to Sentry.
var (
	// ErrAnchorNotFound means the requested anchor sku does not exist.
	ErrAnchorNotFound = errors.New("anchor product not found")

	// ErrInvalidArgument means the request parameters are out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStoreUnavailable means the product or edge store failed or timed out.
	ErrStoreUnavailable = errors.New("store unavailable")
)

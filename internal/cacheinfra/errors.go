package cacheinfra

import "errors"

var (
	// ErrScanUnsupported is returned by backends that cannot enumerate keys.
	ErrScanUnsupported = errors.New("cacheinfra: backend does not support key scanning")

	// ErrTTLUnsupported is returned by backends that do not expose per-key TTLs.
	ErrTTLUnsupported = errors.New("cacheinfra: backend does not expose key ttl")

	// ErrUnavailable is returned when the backend client was never initialised.
	ErrUnavailable = errors.New("cacheinfra: backend unavailable")
)

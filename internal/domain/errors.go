package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Push-subsystem sentinels. The first four surface (translated) to users via
// the token lifecycle manager; the rest degrade silently and are only logged.
var (
	ErrPermissionDenied     = errors.New("push permission denied")
	ErrUnsupported          = errors.New("push unsupported on this platform")
	ErrWorkerNotActive      = errors.New("delivery worker not active")
	ErrStaleRegistration    = errors.New("stale push registration")
	ErrConfigurationInvalid = errors.New("push configuration invalid")
	ErrStoreQuotaExceeded   = errors.New("durable store quota exceeded")
	ErrNetwork              = errors.New("network failure")
)

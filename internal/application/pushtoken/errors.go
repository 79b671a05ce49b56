package pushtoken

import (
	"errors"

	"github.com/matchday-app/notify-api/internal/domain"
)

// UserError is what the lifecycle manager surfaces to callers: a fixed
// user-safe message plus the raw machine code kept for logging. Raw provider
// errors never reach the user.
type UserError struct {
	Code    string // machine-readable, logged, never displayed
	Message string
	err     error
}

func (e *UserError) Error() string { return e.Message }
func (e *UserError) Unwrap() error { return e.err }

const fallbackMessage = "Could not update notification settings. Please try again."

// userMessages is the fixed code→message table. Codes missing from the table
// fall back to the generic message.
var userMessages = map[string]string{
	"permission-denied":  "Notifications are blocked for this device. Enable them in your settings first.",
	"unsupported":        "Push notifications are not available on this device.",
	"worker-not-active":  "The notification service is still starting up. Try again in a moment.",
	"stale-registration": "Your notification registration expired. Toggle notifications off and on again.",
}

// translate wraps err into a UserError keyed by its domain sentinel.
func translate(err error) *UserError {
	code := "unknown"
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		code = "permission-denied"
	case errors.Is(err, domain.ErrUnsupported):
		code = "unsupported"
	case errors.Is(err, domain.ErrWorkerNotActive):
		code = "worker-not-active"
	case errors.Is(err, domain.ErrStaleRegistration):
		code = "stale-registration"
	}
	msg, ok := userMessages[code]
	if !ok {
		msg = fallbackMessage
	}
	return &UserError{Code: code, Message: msg, err: err}
}

// Package besteffort makes swallow-and-log error handling explicit at call
// sites. Push delivery is a best-effort nudge layered over durable records,
// so several paths intentionally degrade instead of failing; routing those
// errors through Log keeps the swallowing visible in review.
package besteffort

import "log/slog"

// Log records err under op and discards it. No-op when err is nil.
func Log(logger *slog.Logger, op string, err error) {
	if err == nil {
		return
	}
	logger.Warn("best-effort operation failed", "op", op, "error", err)
}

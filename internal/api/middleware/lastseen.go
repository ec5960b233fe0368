package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

// LastSeenToucher records user activity
type LastSeenToucher interface {
	TouchLastSeen(ctx context.Context, id string) error
}

// TouchLastSeen records the authenticated user's activity on every request.
// Failures are logged and never fail the request.
func TouchLastSeen(toucher LastSeenToucher, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := GetUserID(r); userID != "" {
				if err := toucher.TouchLastSeen(context.WithoutCancel(r.Context()), userID); err != nil {
					logger.Warn("failed to update last seen", "user", userID, "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/velvetrowhq/velvetrow-backend/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"

	// Inbound ids longer than this are replaced rather than truncated so
	// log lines stay greppable.
	maxRequestIDLength = 64
)

// RequestID honors a caller-supplied X-Request-Id when it looks sane,
// mints a fresh uuid otherwise, and echoes the chosen id back on the
// response so upload failures can be correlated across services.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" || len(reqID) > maxRequestIDLength {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

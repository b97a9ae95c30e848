package middleware

import (
	"fmt"
	"net/http"

	"github.com/velvetrowhq/velvetrow-backend/api/responses"
	pkgerrors "github.com/velvetrowhq/velvetrow-backend/pkg/errors"
	"github.com/velvetrowhq/velvetrow-backend/pkg/logger"
)

// Recoverer turns a handler panic into a logged 500 envelope instead of a
// dropped connection. http.ErrAbortHandler is re-raised untouched.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{"panic": rec})
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

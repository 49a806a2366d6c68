package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/supermarket-backend/api/responses"
	pkgerrors "github.com/angelmondragon/supermarket-backend/pkg/errors"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
)

// Recoverer turns a handler panic into a generic 500 envelope. The panic value
// is logged but never echoed to the client. http.ErrAbortHandler is re-raised
// so the server can drop the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				ctx := r.Context()
				err := fmt.Errorf("panic in %s %s: %v", r.Method, r.URL.Path, rec)
				if logg != nil {
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "internal server error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

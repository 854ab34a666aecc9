package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripgather/tripgather-backend/api/responses"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope. The log line carries
// the matched route and the user Auth resolved further down the chain.
// Mount it inside RequestID. http.ErrAbortHandler is re-raised so net/http
// can drop the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if e, ok := rec.(error); ok && errors.Is(e, http.ErrAbortHandler) {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, panicFields(r, rec))
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func panicFields(r *http.Request, rec any) map[string]any {
	fields := map[string]any{
		"panic":  fmt.Sprint(rec),
		"method": r.Method,
		"route":  routePattern(r),
	}
	if info := responses.RequestInfoFrom(r.Context()); info != nil && info.UserID != uuid.Nil {
		fields["user_id"] = info.UserID.String()
	}
	return fields
}

// routePattern reads chi's route context, which the mux fills in place as it
// matches, so it is populated by the time a deferred recover runs.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

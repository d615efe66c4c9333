package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/alanyoungcy/predibet/internal/server/handler"
)

// Recover converts a panicking handler into a 500 response with the generic
// error body. http.ErrAbortHandler is re-raised so the server can drop the
// connection as usual.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
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
				logger.ErrorContext(r.Context(), "http: handler panic",
					slog.String("request_id", RequestID(r.Context())),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				handler.WriteInternalError(w, fmt.Sprint(rec))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

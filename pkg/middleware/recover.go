package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/hayatshop/storefront/pkg/logger"
	"github.com/hayatshop/storefront/pkg/response"
)

// Recovery turns a panic in any downstream handler into a 500 and logs the
// stack trace.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logger.WithCtx(r.Context()).Error("panic recovered",
					"error", fmt.Sprintf("%v", err),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				)
				response.ServerError(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

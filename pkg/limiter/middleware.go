package limiter

import "net/http"

// Middleware enforces cfg on every request through the wrapped handler.
// Rate-limit headers are attached to allowed and denied responses alike, so
// well-behaved clients can pace themselves; denials short-circuit with 429.
func Middleware(l *Limiter, cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := l.Check(r.Context(), r, cfg)
			SetHeaders(w.Header(), res)
			if !res.Success {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

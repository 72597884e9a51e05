package limiter

import (
	"math"
	"net/http"
	"strconv"
)

// Headers renders a Result as standard client-facing response metadata.
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset are always
// present; Retry-After only accompanies a denial. Pure function, no failure
// modes.
func Headers(res Result) map[string]string {
	h := map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(res.Limit),
		"X-RateLimit-Remaining": strconv.Itoa(res.Remaining),
		"X-RateLimit-Reset":     strconv.FormatInt(res.Reset.Unix(), 10),
	}
	if !res.Success {
		h["Retry-After"] = strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds())))
	}
	return h
}

// SetHeaders writes Headers(res) onto an http.Header.
func SetHeaders(h http.Header, res Result) {
	for k, v := range Headers(res) {
		h.Set(k, v)
	}
}

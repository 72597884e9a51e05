package server

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/campushub/throttle/pkg/limiter"
)

const maxCheckBody = 4 << 10

// checkRequest is one rate-limit decision question. Either name a configured
// rule or spell the policy out inline.
type checkRequest struct {
	Identifier    string `json:"identifier,omitempty"`
	Endpoint      string `json:"endpoint,omitempty"`
	Rule          string `json:"rule,omitempty"`
	MaxRequests   int    `json:"max_requests,omitempty"`
	WindowSeconds int    `json:"window_seconds,omitempty"`
}

type checkResponse struct {
	Success    bool   `json:"success"`
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
	Reset      int64  `json:"reset"`
	RetryAfter *int64 `json:"retry_after,omitempty"`
	Source     string `json:"source"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCheckBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cfg, ok := s.policyFor(req)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "request must name a configured rule or set max_requests and window_seconds > 0",
		})
		return
	}

	// Identifier resolution falls back to the calling connection's forwarded
	// headers, so sidecar deployments work without an explicit identifier.
	res := s.limiter.Check(r.Context(), r, cfg)

	limiter.SetHeaders(w.Header(), res)
	resp := checkResponse{
		Success:   res.Success,
		Limit:     res.Limit,
		Remaining: res.Remaining,
		Reset:     res.Reset.Unix(),
		Source:    string(res.Source),
	}
	if !res.Success {
		secs := int64(math.Ceil(res.RetryAfter.Seconds()))
		resp.RetryAfter = &secs
	}
	writeJSON(w, http.StatusOK, resp)
}

// policyFor maps a check request onto a limiter policy.
func (s *Server) policyFor(req checkRequest) (limiter.Config, bool) {
	if req.Rule != "" {
		rule, ok := s.rules[req.Rule]
		if !ok {
			return limiter.Config{}, false
		}
		endpoint := req.Endpoint
		if endpoint == "" {
			endpoint = req.Rule
		}
		cfg := rule.Limiter(endpoint)
		cfg.Identifier = req.Identifier
		return cfg, true
	}

	if req.MaxRequests <= 0 || req.WindowSeconds <= 0 {
		return limiter.Config{}, false
	}
	return limiter.Config{
		MaxRequests: req.MaxRequests,
		Window:      time.Duration(req.WindowSeconds) * time.Second,
		Identifier:  req.Identifier,
		Endpoint:    req.Endpoint,
	}, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	// Deliberately backend-free: the limiter survives backend loss, so the
	// service is healthy as long as it can answer at all.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding to a ResponseWriter only fails when the client went away.
	_ = json.NewEncoder(w).Encode(v)
}

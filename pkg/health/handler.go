package health

import (
	"encoding/json"
	"net/http"
)

// LivenessHandler answers 200 while the process serves requests.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		write(w, r, http.StatusOK, &Response{Status: StatusHealthy})
	}
}

// ReadinessHandler runs checks and answers 503 while any of them fails.
// The query parameter "check" narrows the probe to the named checks;
// an unknown name is a 404.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	cfg := newConfig(opts...)

	return func(w http.ResponseWriter, r *http.Request) {
		selected := checks
		if names := r.URL.Query()["check"]; len(names) > 0 {
			selected = make(Checks, len(names))
			for _, name := range names {
				fn, ok := checks[name]
				if !ok {
					write(w, r, http.StatusNotFound, &Response{
						Status: StatusUnhealthy,
						Checks: map[string]Check{name: {Status: StatusUnhealthy, Error: "unknown check"}},
					})
					return
				}
				selected[name] = fn
			}
		}

		resp := runChecks(r.Context(), selected, cfg)
		status := http.StatusOK
		if resp.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		write(w, r, status, resp)
	}
}

// write sends resp as JSON; HEAD requests get the status only.
func write(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(resp)
}

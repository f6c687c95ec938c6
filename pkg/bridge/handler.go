package bridge

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Result is the JSON envelope written by Handler.
type Result struct {
	Body   any `json:"body"`
	Status int `json:"status"`
}

// Handler exposes the bridge over HTTP. It expects to be mounted at a chi
// pattern with an {id} parameter, reads a Payload from the request body and
// always answers 200 with a Result. Cookies of the incoming request are
// forwarded and the cookie the handler sets is written to the response.
func Handler(b *Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&p); err != nil {
				writeJSON(w, Result{Status: http.StatusBadRequest, Body: ErrorBody{
					Message: "Bad Request",
					Error:   err.Error(),
				}})
				return
			}
		}
		if cookie := r.Header.Get("Cookie"); cookie != "" {
			if p.Headers == nil {
				p.Headers = map[string]string{}
			}
			if _, ok := p.Headers["Cookie"]; !ok {
				p.Headers["Cookie"] = cookie
			}
		}

		resp := b.Call(r.Context(), chi.URLParam(r, "id"), p, ResponseCookies{w})
		writeJSON(w, Result{Status: resp.Status, Body: resp.Body})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

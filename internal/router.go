package internal

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/core"
)

// mountRoutes registers every API route on the chi router.
func (a *App) mountRoutes() {
	a.server.Routes().Each(func(id string, route api.Route) {
		a.router.Method(route.Schema.Method, chiPattern(route.Schema.Path), a.serveRoute(id, route))
	})
}

func (a *App) serveRoute(id string, route api.Route) http.HandlerFunc {
	params := route.Schema.Params()
	app := a.server.Context()

	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				a.writeError(w, r, NewHTTPError(http.StatusRequestEntityTooLarge, err.Error(), WithError(err)))
				return
			}
			a.writeError(w, r, ErrBadRequest(err.Error(), WithError(err)))
			return
		}

		pathParams := make(map[string]string, len(params))
		for _, name := range params {
			pathParams[name] = chi.URLParam(r, name)
		}

		resp, err := route.Handler(r.Context(), &api.Call{
			App:        app,
			Request:    r,
			Query:      r.URL.Query(),
			Headers:    r.Header,
			PathParams: pathParams,
			RawBody:    raw,
		})
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		if resp == nil {
			a.writeError(w, r, NewHTTPError(http.StatusInternalServerError, "empty response from "+id))
			return
		}
		writeResponse(w, resp)
	}
}

func writeResponse(w http.ResponseWriter, resp *api.Response) {
	for name, values := range resp.Headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if resp.Body == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp.Body)
}

func (a *App) serveClientConfig(w http.ResponseWriter, r *http.Request) {
	client, err := core.ClientConfigOf(a.server)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(client)
}

// chiPattern rewrites ":name" segments to chi's "{name}".
func chiPattern(path string) string {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		if name, ok := strings.CutPrefix(seg, ":"); ok && name != "" {
			segs[i] = "{" + name + "}"
		}
	}
	return strings.Join(segs, "/")
}

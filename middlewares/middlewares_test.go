package middlewares_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tabula/middlewares"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("default allows all origins", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://example.com")
		rec := serve(middlewares.CORS()(ok), req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no headers without origin", func(t *testing.T) {
		t.Parallel()

		rec := serve(middlewares.CORS()(ok), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("specific origins echo the origin", func(t *testing.T) {
		t.Parallel()

		h := middlewares.CORS(middlewares.WithAllowOrigins("http://allowed.com"))(ok)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://allowed.com")
		assert.Equal(t, "http://allowed.com", serve(h, req).Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.com")
		assert.Empty(t, serve(h, req).Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("subdomain pattern", func(t *testing.T) {
		t.Parallel()

		h := middlewares.CORS(middlewares.WithAllowOrigins("https://*.example.com"))(ok)
		for origin, want := range map[string]bool{
			"https://app.example.com": true,
			"https://a.b.example.com": true,
			"https://example.com":     false,
			"http://app.example.com":  false,
			"https://evilexample.com": false,
		} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", origin)
			got := serve(h, req).Header().Get("Access-Control-Allow-Origin")
			assert.Equal(t, want, got == origin, origin)
		}
	})

	t.Run("credentials never use wildcard", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://app.com")
		rec := serve(middlewares.CORS(middlewares.WithAllowCredentials())(ok), req)

		assert.Equal(t, "http://app.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		t.Parallel()

		called := false
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

		req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
		req.Header.Set("Origin", "http://app.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := serve(middlewares.CORS(middlewares.WithMaxAge(time.Minute))(next), req)

		assert.False(t, called)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.Equal(t, "60", rec.Header().Get("Access-Control-Max-Age"))
	})
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	h := middlewares.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = middlewares.GetRequestID(r.Context())
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "upstream-1")
	rec = serve(h, req)
	assert.Equal(t, "upstream-1", seen)
	assert.Equal(t, "upstream-1", rec.Header().Get("X-Request-ID"))
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	extract := middlewares.RequestIDExtractor()

	_, found := extract(context.Background())
	assert.False(t, found)

	attr, found := extract(middlewares.WithRequestID(context.Background(), "abc"))
	require.True(t, found)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "abc", attr.Value.String())
}

func TestRecover(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	h := middlewares.Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body["message"])
	assert.Equal(t, "panic in GET /: boom", body["error"])
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "stack")
}

func TestPanicErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("nil map")
	var err error = &middlewares.PanicError{Value: cause, Method: http.MethodPost, Path: "/api/posts"}

	pe, ok := middlewares.AsPanicError(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, "/api/posts", pe.Path)
	assert.ErrorIs(t, err, cause)

	_, ok = middlewares.AsPanicError(cause)
	assert.False(t, ok)
}

func TestRecoverAbortHandler(t *testing.T) {
	t.Parallel()

	h := middlewares.Recover(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	var deadline time.Time
	var has bool
	h := middlewares.Timeout(time.Second)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		deadline, has = r.Context().Deadline()
	}))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, has)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	h := middlewares.Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))
	serve(h, httptest.NewRequest(http.MethodGet, "/api/posts/1", nil))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "/api/posts/1", record["path"])
	assert.EqualValues(t, http.StatusNotFound, record["status"])
	assert.EqualValues(t, len("missing"), record["size"])
}

func TestChain(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) middlewares.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	serve(middlewares.Chain(ok, mw("a"), mw("b")), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b"}, order)
}

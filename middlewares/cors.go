package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultCORSMaxAge is how long browsers may cache a preflight answer.
const DefaultCORSMaxAge = 12 * time.Hour

type corsConfig struct {
	originFunc  func(origin string) bool
	origins     []string
	methods     []string
	headers     []string
	expose      []string
	maxAge      time.Duration
	credentials bool
}

// CORSOption configures CORS.
type CORSOption func(*corsConfig)

// WithAllowOrigins sets the allowed origins. "*" allows any origin and
// "https://*.example.com" allows every subdomain of example.com.
func WithAllowOrigins(origins ...string) CORSOption {
	return func(c *corsConfig) { c.origins = origins }
}

// WithAllowOriginFunc decides per origin and replaces the origin list.
func WithAllowOriginFunc(fn func(origin string) bool) CORSOption {
	return func(c *corsConfig) { c.originFunc = fn }
}

func WithAllowMethods(methods ...string) CORSOption {
	return func(c *corsConfig) { c.methods = methods }
}

func WithAllowHeaders(headers ...string) CORSOption {
	return func(c *corsConfig) { c.headers = headers }
}

func WithExposeHeaders(headers ...string) CORSOption {
	return func(c *corsConfig) { c.expose = headers }
}

// WithAllowCredentials lets browsers send the session cookie cross-origin.
// The request origin is then echoed instead of "*".
func WithAllowCredentials() CORSOption {
	return func(c *corsConfig) { c.credentials = true }
}

func WithMaxAge(d time.Duration) CORSOption {
	return func(c *corsConfig) { c.maxAge = d }
}

// CORS answers preflight requests with 204 without calling next and adds
// the allow headers to every request from an allowed origin. By default any
// origin may call the API methods with JSON bodies and a request id, and
// the request id header is exposed.
func CORS(opts ...CORSOption) Middleware {
	cfg := &corsConfig{
		origins: []string{"*"},
		methods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		headers: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		expose:  []string{"X-Request-ID"},
		maxAge:  DefaultCORSMaxAge,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	allowed := cfg.originFunc
	if allowed == nil {
		allowed = matchOrigins(cfg.origins)
	}
	wildcard := cfg.originFunc == nil && slices.Contains(cfg.origins, "*")
	methods := strings.Join(cfg.methods, ", ")
	headers := strings.Join(cfg.headers, ", ")
	expose := strings.Join(cfg.expose, ", ")
	maxAge := strconv.Itoa(int(cfg.maxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !allowed(origin) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if wildcard && !cfg.credentials {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			if cfg.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if expose != "" {
				h.Set("Access-Control-Expose-Headers", expose)
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				next.ServeHTTP(w, r)
				return
			}
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if cfg.maxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// matchOrigins compiles the origin list into a predicate.
func matchOrigins(origins []string) func(string) bool {
	exact := make(map[string]struct{}, len(origins))
	var suffixes [][2]string // scheme://, .domain
	for _, o := range origins {
		if o == "*" {
			return func(string) bool { return true }
		}
		if scheme, host, ok := strings.Cut(o, "://*."); ok {
			suffixes = append(suffixes, [2]string{scheme + "://", "." + host})
			continue
		}
		exact[o] = struct{}{}
	}
	return func(origin string) bool {
		if _, ok := exact[origin]; ok {
			return true
		}
		for _, s := range suffixes {
			rest, ok := strings.CutPrefix(origin, s[0])
			if ok && len(rest) > len(s[1]) && strings.HasSuffix(rest, s[1]) {
				return true
			}
		}
		return false
	}
}

// Package handlers serves the session bootstrap and contact form endpoints.
package handlers

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"maxscale/models"
	"maxscale/utils"
)

// maxBodyBytes bounds contact form bodies; the largest valid payload is far
// below this.
const maxBodyBytes = 64 << 10

// API holds the dependencies of the HTTP handlers.
type API struct {
	limiter       *utils.Limiter
	sender        utils.Sender
	from          models.Address
	recipients    []string
	trustProxy    bool
	errorDetail   bool
	nativeCookies bool
	sendTimeout   time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithErrorDetail exposes mail provider error messages to clients. Only
// enable outside production.
func WithErrorDetail(enabled bool) Option {
	return func(a *API) {
		a.errorDetail = enabled
	}
}

// WithTrustProxy makes the rate limiter key on proxy supplied client
// address headers.
func WithTrustProxy(trust bool) Option {
	return func(a *API) {
		a.trustProxy = trust
	}
}

// WithNativeCookies additionally emits standard Set-Cookie headers for new
// sessions.
func WithNativeCookies(enabled bool) Option {
	return func(a *API) {
		a.nativeCookies = enabled
	}
}

// WithSendTimeout bounds a single mail provider call.
func WithSendTimeout(d time.Duration) Option {
	return func(a *API) {
		a.sendTimeout = d
	}
}

// WithClock replaces time.Now for session expiry and timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *API) {
		a.now = now
	}
}

// New creates a new API instance.
func New(limiter *utils.Limiter, sender utils.Sender, from models.Address, recipients []string, opts ...Option) *API {
	a := &API{
		limiter:     limiter,
		sender:      sender,
		from:        from,
		recipients:  recipients,
		trustProxy:  true,
		sendTimeout: 10 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return a
}

// Routes registers the API endpoints on r under their absolute paths.
func (a *API) Routes(r chi.Router) {
	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/api/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/openapi.yaml",
		Path:    "api/docs",
	}, nil))

	r.Handle("/api/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/openapi.yaml",
		Path:    "api/redoc",
	}, nil))

	r.Group(func(r chi.Router) {
		r.Use(a.Recover, SecurityHeaders, a.WithSession)
		r.HandleFunc(utils.SessionPath, a.InitSession)
		r.HandleFunc(utils.ContactPath, a.SendEmail)
	})
}

// Router returns a chi.Router with only the API routes.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	a.Routes(r)
	return r
}

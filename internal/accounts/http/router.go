package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/aussiebroadwan/eventpass/internal/accounts/service"
	"github.com/aussiebroadwan/eventpass/internal/accounts/store"
	"github.com/aussiebroadwan/eventpass/pkg/httpx"
	"github.com/aussiebroadwan/eventpass/pkg/jwtx"
	"github.com/aussiebroadwan/eventpass/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/eventpass/api/accounts" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits holds the limiter profile of each route group.
type RateLimits struct {
	Register httpx.RateLimitConfig
	Login    httpx.RateLimitConfig
	Account  httpx.RateLimitConfig
	Admin    httpx.RateLimitConfig
	Public   httpx.RateLimitConfig
}

// DefaultRateLimits returns the built-in profiles.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Register: httpx.StrictLimit,
		Login:    httpx.StrictLimit,
		Account:  httpx.LenientLimit,
		Admin:    httpx.ModerateLimit,
		Public:   httpx.LenientLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AccountService *service.AccountService
	RateLimits     RateLimits

	// TrustedProxies may set X-Forwarded-For for rate limiting. Empty means
	// the connection peer is the client.
	TrustedProxies []netip.Prefix

	// Metrics instruments every route when set; Gatherer backs /metrics.
	Metrics  *httpx.Metrics
	Gatherer prometheus.Gatherer
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		RateLimits:   DefaultRateLimits(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			EventPass Accounts API
//	@version		0.1.0
//	@description	Registration, approval gating and login for event attendees.
//	@description
//	@description				New registrations stay pending until an administrator approves them.
//	@description				Session tokens are JWTs signed with HS256 or EdDSA.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/eventpass
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// handle mounts h under pattern, wrapped in the metrics middleware when
// metrics are enabled. The pattern doubles as the route label.
func (r *Router) handle(pattern string, h http.Handler, mws ...httpx.Middleware) {
	if r.Metrics != nil {
		mws = append([]httpx.Middleware{r.Metrics.Instrument(pattern)}, mws...)
	}
	r.Mux.Handle(pattern, httpx.Chain(h, mws...))
}

func (r *Router) clientIP() httpx.KeyExtractor {
	return httpx.ClientIPKeyExtractor(r.TrustedProxies)
}

func (r *Router) registerAccounts() {
	register := &RegisterHandler{AccountService: r.AccountService}
	login := &SessionHandler{AccountService: r.AccountService}
	me := &MeHandler{AccountService: r.AccountService}

	// Credential endpoints share a strict limit keyed by IP plus email so one
	// client cannot grind through a single account.
	registerLimit := httpx.RateLimitByIPAndJSONField(r.RateLimits.Register, r.clientIP(), "email")
	loginLimit := httpx.RateLimitByIPAndJSONField(r.RateLimits.Login, r.clientIP(), "email")

	r.handle("POST /v1/accounts", register, registerLimit)
	r.handle("POST /v1/sessions", login, loginLimit)

	// Paths used by the original web frontend
	r.handle("POST /api/users/register", register, registerLimit)
	r.handle("POST /api/users/login", login, loginLimit)

	r.handle("GET /v1/accounts/me", me,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByAccount(r.RateLimits.Account, r.clientIP()),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AccountService: r.AccountService}

	limit := httpx.RateLimitByAccount(r.RateLimits.Admin, r.clientIP())

	r.handle("GET /v1/admin/accounts", http.HandlerFunc(h.HandleList),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireRole("admin"),
		limit,
	)
	r.handle("POST /v1/admin/accounts/{id}/review", http.HandlerFunc(h.HandleReview),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireRole("admin"),
		limit,
	)
}

func (r *Router) registerSystem() {
	public := httpx.RateLimitByIP(r.RateLimits.Public, r.clientIP())

	r.handle("GET /.well-known/jwks.json", JWKSHandler(r.keys), public)

	// Health check endpoints - monitoring systems may poll frequently
	r.handle("GET /livez", LivezHandler(r.startTime, r.buildVersion), public)
	r.handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.AccountService), public)

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{}))
	}
}

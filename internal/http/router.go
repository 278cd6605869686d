// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, rate limiting, and compression.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/capacitamente/lyro-backend/internal/config"
	"github.com/capacitamente/lyro-backend/internal/domain"
	"github.com/capacitamente/lyro-backend/internal/faq"
	"github.com/capacitamente/lyro-backend/internal/flow"
	"github.com/capacitamente/lyro-backend/internal/guard"
	"github.com/capacitamente/lyro-backend/internal/http/handlers"
	"github.com/capacitamente/lyro-backend/internal/http/middleware"
	"github.com/capacitamente/lyro-backend/internal/repo"
	"github.com/capacitamente/lyro-backend/internal/services"
)

//
// Repo shims
//
// The shims adapt repository free functions to the narrow interfaces the
// guard, the flow engines, and the services expect. They keep those packages
// decoupled from the concrete repo package while reusing its functions.
//

// sessionStoreShim satisfies guard.SessionStore.
type sessionStoreShim struct{ db *gorm.DB }

func (s sessionStoreShim) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return repo.GetSession(ctx, s.db, id)
}

func (s sessionStoreShim) CreateSession(ctx context.Context, id, ownerIdentity string) (*domain.Session, error) {
	return repo.CreateSession(ctx, s.db, id, ownerIdentity)
}

// certRepoShim satisfies flow.CertificateFinder.
type certRepoShim struct{ db *gorm.DB }

func (s certRepoShim) FindCertificate(ctx context.Context, orderCode, courseNameSub string) (*domain.Certificate, error) {
	return repo.FindCertificate(ctx, s.db, orderCode, courseNameSub)
}

// leadRepoShim satisfies flow.LeadWriter and flow.LeadFinder.
type leadRepoShim struct{ db *gorm.DB }

func (s leadRepoShim) CreateLead(ctx context.Context, l *domain.Lead) error {
	return repo.CreateLead(ctx, s.db, l)
}

func (s leadRepoShim) FindLeadsByName(ctx context.Context, nameSub string) ([]domain.Lead, error) {
	return repo.FindLeadsByName(ctx, s.db, nameSub)
}

func (s leadRepoShim) FindLeadsByPhoneVariants(ctx context.Context, variants []string, nameFilter string) ([]domain.Lead, error) {
	return repo.FindLeadsByPhoneVariants(ctx, s.db, variants, nameFilter)
}

// scheduleRepoShim satisfies flow.ScheduleWriter.
type scheduleRepoShim struct{ db *gorm.DB }

func (s scheduleRepoShim) CreateSchedulePreference(ctx context.Context, p *domain.SchedulePreference) (string, error) {
	return repo.CreateSchedulePreference(ctx, s.db, p)
}

// sessionRepoShim satisfies services.SessionRepo.
type sessionRepoShim struct{}

func (sessionRepoShim) CountSessions(ctx context.Context, db *gorm.DB, ownerIdentity string) (int64, error) {
	return repo.CountSessions(ctx, db, ownerIdentity)
}

func (sessionRepoShim) ListSessionsPage(ctx context.Context, db *gorm.DB, ownerIdentity string, offset, limit int) ([]domain.Session, error) {
	return repo.ListSessionsPage(ctx, db, ownerIdentity, offset, limit)
}

func (sessionRepoShim) GetOwnedSession(ctx context.Context, db *gorm.DB, id, ownerIdentity string) (*domain.Session, error) {
	return repo.GetOwnedSession(ctx, db, id, ownerIdentity)
}

func (sessionRepoShim) CountMessages(db *gorm.DB, sessionID string) (int64, error) {
	return repo.CountMessages(db, sessionID)
}

func (sessionRepoShim) ListMessagesPage(db *gorm.DB, sessionID string, offset, limit int) ([]domain.Message, error) {
	return repo.ListMessagesPage(db, sessionID, offset, limit)
}

func (sessionRepoShim) SetSessionPinned(ctx context.Context, db *gorm.DB, id, ownerIdentity string, pinned bool) error {
	return repo.SetSessionPinned(ctx, db, id, ownerIdentity, pinned)
}

func (sessionRepoShim) DeleteSession(ctx context.Context, db *gorm.DB, id, ownerIdentity string) error {
	return repo.DeleteSession(ctx, db, id, ownerIdentity)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and
// rate limiting, compression, CORS and security headers, health and metrics
// endpoints, and then mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per visitor token/IP, bypass on replay)
//  9. Gzip compression
// 10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, ai services.FallbackGateway, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-Client-Token",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, ownerIdentity, sessionID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, ownerIdentity, sessionID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per visitor token/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByTokenOrIP())
	r.Use(rl.Handler())

	// 9) Compress responses for clients that accept it
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Client-Token", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Client-Token", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI, opt-in
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: guard, flow engines, matcher, services
	states := flow.NewStore()
	engines := flow.NewRegistry(
		&flow.CertificateStatusEngine{Certs: certRepoShim{db}},
		&flow.SchedulePreferenceEngine{Schedules: scheduleRepoShim{db}, Cache: states},
		&flow.EnrollmentEngine{Leads: leadRepoShim{db}, Schedules: scheduleRepoShim{db}, Cache: states},
		&flow.AdvisorQuizEngine{},
		&flow.EnrollmentVerificationEngine{Leads: leadRepoShim{db}},
	)

	routerSvc := &services.RouterService{
		DB:              db,
		Guard:           &guard.Guard{Sessions: sessionStoreShim{db}},
		Flows:           engines,
		States:          states,
		FAQ:             faq.Default(),
		AI:              ai,
		MaxMessageRunes: cfg.MaxMessageRunes,
	}
	sessSvc := &services.SessionService{DB: db, Repo: sessionRepoShim{}}
	h := handlers.New(db, routerSvc, sessSvc, cfg.IdempotencyTTL)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Chat
		api.POST("/chat", h.PostChat)

		// Sessions
		api.GET("/sessions", h.ListSessions)
		api.GET("/sessions/:id/messages", h.ListSessionMessages)
		api.PUT("/sessions/:id/pin", h.PinSession)
		api.DELETE("/sessions/:id", h.DeleteSession)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

package http

import (
	"context"
	"log/slog"

	"github.com/geocoder89/civicchain/internal/http/handlers"
	"github.com/geocoder89/civicchain/internal/http/middlewares"
	"github.com/geocoder89/civicchain/internal/observability"
	"github.com/geocoder89/civicchain/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Env            string
	ServiceName    string
	Log            *slog.Logger
	Prom           *observability.Prom
	Accounts       handlers.AccountService
	Verifier       handlers.IdentityVerifier
	Ping           func(ctx context.Context) error
	Limiter        ratelimit.Limiter
	AllowedOrigins []string
	MaxBodyBytes   int64
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	serviceName := d.ServiceName
	if serviceName == "" {
		serviceName = "civicchain-api"
	}

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(d.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(d.AllowedOrigins))
	if d.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(d.MaxBodyBytes))
	}
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/api/health", h.APIHealth)

	if d.Prom != nil {
		r.GET("/metrics", d.Prom.Handler())
	}

	var outcomes handlers.OutcomeRecorder
	if d.Prom != nil {
		outcomes = d.Prom
	}

	authHandler := handlers.NewAuthHandler(d.Accounts, d.Verifier, d.Log, outcomes)

	limit := func(scope string) gin.HandlerFunc {
		if d.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middlewares.RateLimit(d.Limiter, scope, middlewares.KeyByIP, d.Log)
	}

	authGroup := r.Group("/api/auth")
	authGroup.POST("/register", limit("register"), authHandler.Register)
	authGroup.POST("/login", limit("login"), authHandler.Login)
	authGroup.POST("/verify-aadhaar", middlewares.RequireBearer(), authHandler.VerifyIdentity)

	return r
}

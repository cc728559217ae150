package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "research-backend/internal/auth"
	"research-backend/internal/credentials"
	"research-backend/internal/ingestion"
	"research-backend/internal/papers"
	"research-backend/internal/services/health"
	"research-backend/internal/shared/config"
	"research-backend/internal/shared/metrics"
	"research-backend/internal/shared/server/middleware"
	"research-backend/internal/shared/server/respond"
	"research-backend/internal/users"
)

const ingestRateGroup = "INGEST"

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config             config.Config
	GoogleAuth         *googleauth.GoogleService
	UsersHandler       *users.Handler
	CredentialsHandler *credentials.Handler
	PapersHandler      *papers.Handler
	IngestHandler      *ingestion.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
	)

	r.GET("/metrics", metrics.Handler())

	healthSvc := health.NewService()
	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.CredentialsHandler != nil {
		deps.CredentialsHandler.RegisterRoutes(api)
	}
	if deps.PapersHandler != nil {
		deps.PapersHandler.RegisterRoutes(api)
	}
	if deps.IngestHandler != nil {
		// Ingestion fans out to the mail provider; cap it per user.
		ingest := api.Group("")
		ingest.Use(middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: ingestRateGroup,
			Rules: map[string]middleware.RateLimitRule{
				ingestRateGroup: {Rate: 1.0 / 30.0, Burst: 2},
			},
		}))
		deps.IngestHandler.RegisterRoutes(ingest)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

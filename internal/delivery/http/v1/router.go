package v1

import (
	"net/http"
	"time"

	"profile-mapper-backend/internal/delivery/http/middleware"
	"profile-mapper-backend/internal/delivery/http/response"
	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/internal/usecase"
	"profile-mapper-backend/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	Sessions *usecase.SessionRegistry
	Guard    *usecase.RouteGuard
	Verifier domain.TokenVerifier
	AdminUC  domain.AdminUsecase
	MapUC    domain.MapUsecase
	HealthUC usecase.HealthUsecase
	Redis    *goredis.Client // nil selects the in-memory rate limiter

	// Optional: sign-in lockout and security audit log
	LoginTracker *security.LoginTracker
	Audit        *security.AuditLogger

	CORSOrigins     []string
	Production      bool
	EnableCSRF      bool
	SessionMaxAge   int
	RateLimitWindow time.Duration
	AuthRateLimit   int
	GlobalRateLimit int
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.CORSOrigins)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware(deps.Production))
	r.Use(middleware.ErrorHandler())
	if deps.GlobalRateLimit > 0 {
		r.Use(middleware.NewRateLimiter(middleware.GlobalRateLimitConfig(deps.GlobalRateLimit, deps.RateLimitWindow), deps.Redis).Middleware())
	}

	v1 := r.Group("/v1")
	v1.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "System operational", deps.HealthUC.Check(c.Request.Context()))
	})
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	app := r.Group("")
	app.Use(middleware.SessionMiddleware(deps.Sessions, deps.Verifier, deps.Production, deps.SessionMaxAge))
	if deps.EnableCSRF {
		app.Use(middleware.CSRFMiddleware(deps.Production, "/auth/sign-in", "/auth/sign-up"))
	}

	public := app.Group("")
	if deps.AuthRateLimit > 0 {
		public.Use(middleware.NewRateLimiter(middleware.AuthRateLimitConfig(deps.AuthRateLimit, deps.RateLimitWindow), deps.Redis).Middleware())
	}
	NewAuthHandler(public, deps.Guard, deps.LoginTracker, deps.Audit)

	protected := app.Group("")
	protected.Use(middleware.RequireAuth(deps.Guard, false))
	{
		NewDirectoryHandler(protected)
		NewMapHandler(protected, deps.MapUC)
	}

	admin := app.Group("")
	admin.Use(middleware.RequireAuth(deps.Guard, true))
	{
		NewAdminHandler(admin, deps.AdminUC, deps.Audit)
	}

	r.NoRoute(response.NotFound)

	return r
}

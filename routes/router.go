package routes

import (
	"net/http"
	"time"

	"civicreport/controllers"
	"civicreport/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configure NewRouter.
type Options struct {
	Deps           controllers.Deps
	Counter        middlewares.Counter
	LimitPrefix    string
	DailyLimit     int
	AllowedOrigins []string
}

// NewRouter wires middleware and every route group.
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger(opts.Deps.Logger))
	r.Use(middlewares.MetricsMiddleware())

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Disposition", middlewares.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middlewares.Authenticate(opts.Deps.JWTSecret, opts.Deps.Sessions, opts.Deps.Users, opts.Deps.Logger))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	issues := controllers.NewIssueController(opts.Deps)
	limiter := middlewares.IssueRateLimiter(opts.Counter, opts.LimitPrefix, opts.DailyLimit, opts.Deps.Logger)

	AuthRoutes(r, controllers.NewAuthController(opts.Deps))
	UserRoutes(r, controllers.NewUserController(opts.Deps), issues)
	IssueRoutes(r, issues, limiter)
	AdminRoutes(r, issues, controllers.NewAnalyticsController(opts.Deps))

	return r
}

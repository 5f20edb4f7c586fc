package router

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"testons-go/server/internal/config"
	"testons-go/server/internal/handlers"
	"testons-go/server/internal/repository"
	"testons-go/server/internal/services"
	"testons-go/server/internal/telemetry"
)

// Dependencies are the services the routes are wired to.
type Dependencies struct {
	Store      repository.Store
	Results    *services.ResultsService
	Summarizer handlers.Summarizer
	Metrics    *telemetry.Metrics
	// Credentials returns the current password hashes.
	Credentials func() config.AuthConfig
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String()})
}

func Setup(log *zap.Logger, serverConf config.ServerConfig, deps Dependencies) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	if deps.Metrics != nil {
		router.Use(MetricsMiddleware(deps.Metrics))
	}

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		IsDevelopment:         !serverConf.SecureCookies,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	// Unauthenticated probes sit outside the session middleware.
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	store := cookie.NewStore([]byte(serverConf.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   serverConf.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})

	app := router.Group("/")
	app.Use(sessions.Sessions("testons_session", store))
	app.Use(CSRFProtection())
	app.Use(RoleLoaderMiddleware(log))

	authHandler := handlers.NewAuthHandler(log, deps.Credentials)
	protocolHandler := handlers.NewProtocolHandler(log, deps.Store, deps.Results)
	sessionHandler := handlers.NewSessionHandler(log, deps.Store, deps.Results)
	resultsHandler := handlers.NewResultsHandler(log, deps.Results, deps.Summarizer)

	loginRate := serverConf.LoginRatePerMinute
	if loginRate == 0 {
		loginRate = 5
	}
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: loginRate,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	app.POST("/login", limiter, authHandler.Login)
	app.POST("/logout", authHandler.Logout)

	api := app.Group("/api")
	api.GET("/csrf", CSRFToken)

	readers := api.Group("")
	readers.Use(RoleRequired(handlers.RoleAdmin, handlers.RoleViewer))
	{
		readers.GET("/me", authHandler.Me)
		readers.GET("/protocol", protocolHandler.Get)
		readers.GET("/protocol/timestamp", protocolHandler.Timestamp)
		readers.GET("/sessions", sessionHandler.List)
		readers.GET("/sessions/:id", sessionHandler.Get)

		results := readers.Group("/results")
		{
			results.GET("/statistics", resultsHandler.Statistics)
			results.GET("/verbatims", resultsHandler.Verbatims)
			results.GET("/charts", resultsHandler.Charts)
			results.GET("/export.csv", resultsHandler.ExportCSV)
			results.GET("/export.xlsx", resultsHandler.ExportXLSX)
		}
	}

	admins := api.Group("")
	admins.Use(RoleRequired(handlers.RoleAdmin))
	{
		admins.PUT("/protocol/tasks", protocolHandler.PutTasks)
		admins.PUT("/protocol/sections", protocolHandler.PutSections)
		admins.POST("/sessions", sessionHandler.Create)
		admins.PUT("/sessions/:id", sessionHandler.Update)
		admins.DELETE("/sessions/:id", sessionHandler.Delete)
		admins.PUT("/sessions/:id/recording", sessionHandler.PutRecording)
		admins.DELETE("/sessions/:id/recording", sessionHandler.DeleteRecording)
		admins.POST("/results/summary", resultsHandler.Summary)
	}

	return router
}

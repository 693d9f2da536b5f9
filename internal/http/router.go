package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/bloghub/internal/cache"
	"github.com/geocoder89/bloghub/internal/config"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/http/handlers"
	"github.com/geocoder89/bloghub/internal/http/middlewares"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/geocoder89/bloghub/internal/service"
	"github.com/geocoder89/bloghub/internal/upload"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "bloghub"

// Deps is everything the router wires into services. Cache, Prom, Metrics and
// Checks are optional.
type Deps struct {
	Config     config.Config
	Users      service.UserStore
	Categories service.CategoryStore
	Posts      service.PostStore
	Tokens     service.TokenManager
	Storage    upload.Storage
	Cache      cache.Store
	Prom       *observability.Prom
	Metrics    prometheus.Gatherer
	Checks     map[string]handlers.Pinger
}

func NewRouter(log *slog.Logger, deps Deps) *gin.Engine {
	cfg := deps.Config

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.SecurityHeaders(cfg.UploadPublicPrefix))

	// room for the multipart envelope around the largest accepted image
	r.Use(middlewares.MaxBodyBytes(cfg.UploadMaxBytes + 1<<20))

	// health, metrics, docs
	h := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// uploaded images are plain static files when stored on disk
	if disk, ok := deps.Storage.(*upload.DiskStorage); ok {
		r.Static(cfg.UploadPublicPrefix, disk.Dir())
	}

	// wire up services
	authSvc := service.NewAuthService(deps.Users, deps.Tokens)
	categorySvc := service.NewCategoryService(deps.Categories, deps.Cache, deps.Prom)
	postSvc := service.NewPostService(deps.Posts, deps.Categories, service.PostServiceConfig{
		Storage:        deps.Storage,
		MaxUploadBytes: cfg.UploadMaxBytes,
		Cache:          deps.Cache,
		Prom:           deps.Prom,
	})

	// Wire up handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	categoriesHandler := handlers.NewCategoriesHandler(categorySvc)
	postsHandler := handlers.NewPostsHandler(postSvc)

	authM := middlewares.NewAuthMiddleware(authSvc)
	requireAuth := authM.RequireAuth()
	requireAdmin := authM.RequireRole(user.RoleAdmin)

	authLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimitPerMinute, time.Minute)
	commentLimiter := middlewares.NewRateLimiter(cfg.CommentRateLimitPerMinute, time.Minute)

	api := r.Group("/api")

	// auth routes
	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), middlewares.RequireJSON(), authHandler.Register)
	authRoutes.POST("/login", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), middlewares.RequireJSON(), authHandler.Login)
	authRoutes.GET("/me", requireAuth, authHandler.Me)

	// public post routes
	posts := api.Group("/posts")
	posts.GET("", postsHandler.List)
	posts.GET("/all", postsHandler.List)
	posts.GET("/feed", postsHandler.Feed)
	posts.GET("/search", postsHandler.Search)
	posts.GET("/:slug", postsHandler.GetBySlug)

	// author routes
	posts.POST("", requireAuth, postsHandler.Create)
	posts.GET("/me/myposts", requireAuth, postsHandler.Mine)
	posts.PATCH("/:id/publish", requireAuth, postsHandler.TogglePublish)
	posts.PUT("/:id", requireAuth, middlewares.RequireJSON(), postsHandler.Update)
	posts.POST("/:slug/comment",
		requireAuth,
		commentLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
		middlewares.RequireJSON(),
		postsHandler.Comment,
	)

	// categories: public reads, admin writes
	categories := api.Group("/categories")
	categories.GET("", categoriesHandler.List)
	categories.GET("/:slug", categoriesHandler.GetBySlug)

	admin := categories.Group("", requireAuth, requireAdmin)
	admin.POST("", middlewares.RequireJSON(), categoriesHandler.Create)
	admin.PUT("/:id", middlewares.RequireJSON(), categoriesHandler.Update)
	admin.DELETE("/:id", categoriesHandler.Delete)

	return r
}

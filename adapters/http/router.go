package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khoahotran/mediahub/internal/domain/user"
	"github.com/khoahotran/mediahub/pkg/auth"
	"github.com/khoahotran/mediahub/pkg/logger"
)

type Handlers struct {
	Auth    *AuthHandler
	Media   *MediaHandler
	Comment *CommentHandler
	Rating  *RatingHandler
	RSS     *RSSHandler
}

// NewRouter wires every route. limiter may be nil.
func NewRouter(h Handlers, jwtSvc *auth.JWTService, limiter *RateLimiter, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log), PrometheusMiddleware(), ErrorMiddleware(log))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
	if h.RSS != nil {
		api.GET("/feed.rss", h.RSS.GenerateRSS)
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
	}

	private := api.Group("")
	private.Use(AuthMiddleware(jwtSvc, log))
	if limiter != nil {
		private.Use(limiter.Middleware())
	}

	creatorOnly := RequireRole(user.RoleCreator)

	media := private.Group("/media")
	{
		media.POST("/upload", creatorOnly, h.Media.UploadMedia)
		media.GET("", h.Media.ListMedia)
		media.GET("/search", h.Media.SearchMedia)
		media.GET("/:id", h.Media.GetMedia)
		media.DELETE("/:id", creatorOnly, h.Media.DeleteMedia)
	}

	comments := private.Group("/comments")
	{
		comments.POST("/:mediaId", h.Comment.AddComment)
		comments.GET("/:mediaId", h.Comment.ListComments)
		comments.DELETE("/:mediaId/:commentId", h.Comment.DeleteComment)
	}

	ratings := private.Group("/ratings")
	{
		ratings.POST("/:mediaId", h.Rating.UpsertRating)
		ratings.GET("/:mediaId", h.Rating.ListRatings)
		ratings.DELETE("/:mediaId", h.Rating.DeleteRating)
	}

	return router
}

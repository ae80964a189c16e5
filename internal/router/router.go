package router

import (
	"net/http"
	"time"

	"github.com/gfdmit/blog-service/config"
	"github.com/gfdmit/blog-service/internal/auth"
	v1 "github.com/gfdmit/blog-service/internal/handlers/http/v1"
	v2 "github.com/gfdmit/blog-service/internal/handlers/http/v2"
	"github.com/gfdmit/blog-service/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

func New(conf config.CORS, svc *service.Service, authenticator *auth.Authenticator) (*gin.Engine, error) {
	var (
		router = gin.New()
	)

	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.AllowOrigins,
		AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", requestIDHeader},
		ExposeHeaders:    []string{"Link", "Location", requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300 * time.Second,
	}))
	router.Use(requestID(), gin.Recovery())

	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	versions := map[string]func(*gin.RouterGroup, *service.Service) error{
		"/api/v1": v1.Register,
		"/api/v2": v2.Register,
	}
	for prefix, register := range versions {
		apiGroup := router.Group(prefix)
		apiGroup.Use(gin.Logger(), authenticator.Middleware())
		if err := register(apiGroup, svc); err != nil {
			return nil, err
		}
	}

	return router, nil
}

// requestID propagates the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

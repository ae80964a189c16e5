package rest

import (
	"errors"
	"log"
	"net/http"

	"github.com/gfdmit/blog-service/internal/service"
	"github.com/gin-gonic/gin"
)

var (
	detailNotFound = gin.H{"detail": "Not found."}
	errorNotFound  = gin.H{"error": "Post not found."}
)

// renderError writes the response for a service error. notFound is the body
// used for a missing post, which differs between post and comment routes.
func renderError(c *gin.Context, err error, notFound gin.H) {
	var (
		verr *service.ValidationError
		perr *service.PermissionError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.As(err, &perr):
		c.JSON(http.StatusForbidden, gin.H{"detail": perr.Reason})
	case errors.Is(err, service.ErrPostNotFound):
		c.JSON(http.StatusNotFound, notFound)
	case errors.Is(err, service.ErrInactivePost):
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot comment on an inactive post."})
	default:
		log.Printf("[REST] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

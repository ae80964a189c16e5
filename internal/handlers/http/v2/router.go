package v2

import (
	"github.com/gfdmit/blog-service/internal/handlers/http/rest"
	"github.com/gfdmit/blog-service/internal/service"
	"github.com/gin-gonic/gin"
)

// Register mounts the v2 surface, the REST resources only.
func Register(apiGroup *gin.RouterGroup, svc *service.Service) error {
	rest.New(svc).Register(apiGroup)
	return nil
}

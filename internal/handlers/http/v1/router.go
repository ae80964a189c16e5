package v1

import (
	gql "github.com/gfdmit/blog-service/internal/handlers/http/v1/graphql"
	"github.com/gfdmit/blog-service/internal/handlers/http/docs"
	"github.com/gfdmit/blog-service/internal/handlers/http/rest"
	"github.com/gfdmit/blog-service/internal/service"
	"github.com/gin-gonic/gin"
)

// Register mounts the v1 surface: the REST resources, their schema and
// documentation pages, and the GraphQL endpoint.
func Register(apiGroup *gin.RouterGroup, svc *service.Service) error {
	gqlHandler, err := gql.New(svc)
	if err != nil {
		return err
	}
	apiDocs, err := docs.New()
	if err != nil {
		return err
	}

	rest.New(svc).Register(apiGroup)
	apiDocs.Register(apiGroup)
	apiGroup.Any("/graphql", gin.WrapH(gqlHandler))

	return nil
}

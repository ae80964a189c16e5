// Package docs serves the OpenAPI description of the REST surface and the
// interactive pages built on it.
package docs

import (
	_ "embed"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openapi []byte

type Docs struct {
	raw    []byte
	parsed map[string]interface{}
}

func New() (*Docs, error) {
	parsed := map[string]interface{}{}
	if err := yaml.Unmarshal(openapi, &parsed); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
	}
	return &Docs{raw: openapi, parsed: parsed}, nil
}

// Register mounts /schema/, /docs/ and /redoc/ on group. The schema's
// server url is set to the group's base path.
func (d *Docs) Register(group *gin.RouterGroup) {
	base := strings.TrimSuffix(group.BasePath(), "/")
	schemaURL := base + "/schema/?format=json"

	for _, suffix := range []string{"", "/"} {
		group.GET("/schema"+suffix, d.schema(base))
		group.GET("/docs"+suffix, page(swaggerPage, schemaURL))
		group.GET("/redoc"+suffix, page(redocPage, schemaURL))
	}
}

func (d *Docs) schema(base string) gin.HandlerFunc {
	withServer := make(map[string]interface{}, len(d.parsed)+1)
	for k, v := range d.parsed {
		withServer[k] = v
	}
	withServer["servers"] = []map[string]string{{"url": base}}

	return func(c *gin.Context) {
		if c.Query("format") == "json" || strings.Contains(c.GetHeader("Accept"), "application/json") {
			c.JSON(http.StatusOK, withServer)
			return
		}
		c.Data(http.StatusOK, "application/vnd.oai.openapi; charset=utf-8", d.raw)
	}
}

func page(tmpl string, schemaURL string) gin.HandlerFunc {
	body := []byte(strings.ReplaceAll(tmpl, "{{SCHEMA_URL}}", schemaURL))
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
	}
}

const swaggerPage = `<!DOCTYPE html>
<html>
<head>
  <title>Blog API</title>
  <meta charset="utf-8"/>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: "{{SCHEMA_URL}}", dom_id: "#swagger-ui", deepLinking: true});
  </script>
</body>
</html>
`

const redocPage = `<!DOCTYPE html>
<html>
<head>
  <title>Blog API</title>
  <meta charset="utf-8"/>
</head>
<body>
  <redoc spec-url="{{SCHEMA_URL}}"></redoc>
  <script src="https://cdn.jsdelivr.net/npm/redoc@2/bundles/redoc.standalone.js"></script>
</body>
</html>
`

package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gfdmit/blog-service/config"
	"github.com/gfdmit/blog-service/internal/auth"
	"github.com/gfdmit/blog-service/internal/repository/sqlite"
	"github.com/gfdmit/blog-service/internal/router"
	"github.com/gfdmit/blog-service/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type client struct {
	t       *testing.T
	handler http.Handler
	svc     *service.Service
}

func newClient(t *testing.T) *client {
	t.Helper()
	repo, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	svc := service.New(repo)
	engine, err := router.New(config.CORS{AllowOrigins: []string{"*"}}, svc, auth.New(repo))
	require.NoError(t, err)
	return &client{t: t, handler: engine, svc: svc}
}

// writer creates a user with an author profile and returns its token.
func (c *client) writer(name string) string {
	c.t.Helper()
	return c.account(name, true)
}

// reader creates a user without an author profile and returns its token.
func (c *client) reader(name string) string {
	c.t.Helper()
	return c.account(name, false)
}

func (c *client) account(name string, author bool) string {
	c.t.Helper()
	ctx := context.Background()
	user, token, err := c.svc.CreateUser(ctx, service.UserInput{Username: name})
	require.NoError(c.t, err)
	if author {
		_, err = c.svc.CreateAuthor(ctx, service.AuthorInput{Name: name, Email: name + "@test.com", UserID: &user.ID})
		require.NoError(c.t, err)
	}
	return token
}

func (c *client) do(method, url, token string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type object = map[string]interface{}

func (c *client) createPost(token, title string) int64 {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/posts/", token, object{"title": title, "content": "Content of " + title})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode[object](c.t, rec)["id"].(float64))
}

func TestPing(t *testing.T) {
	c := newClient(t)

	rec := c.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	c := newClient(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCreatePost(t *testing.T) {
	c := newClient(t)
	alice := c.writer("alice")

	rec := c.do(http.MethodPost, "/api/v1/posts/", alice, object{"title": "Hello", "content": "World"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode[object](t, rec)
	assert.Equal(t, "Hello", body["title"])
	assert.Equal(t, "alice", body["author_name"])
	assert.Equal(t, "draft", body["status"])
	assert.NotEmpty(t, body["published_date"])
	assert.NotContains(t, body, "comments")
	assert.Equal(t, fmt.Sprintf("/api/v1/posts/%v/", body["id"]), rec.Header().Get("Location"))
}

func TestCreatePostForbidden(t *testing.T) {
	c := newClient(t)
	bob := c.reader("bob")
	payload := object{"title": "Hello", "content": "World"}

	rec := c.do(http.MethodPost, "/api/v1/posts/", "", payload)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, object{"detail": service.MsgLoginRequired}, decode[object](t, rec))

	rec = c.do(http.MethodPost, "/api/v1/posts/", bob, payload)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, object{"detail": service.MsgNoAuthorProfile}, decode[object](t, rec))
}

func TestCreatePostBadInput(t *testing.T) {
	c := newClient(t)
	alice := c.writer("alice")
	c.createPost(alice, "Hello")

	rec := c.do(http.MethodPost, "/api/v1/posts/", alice, object{"title": "Hello", "content": "Again"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, object{"title": []interface{}{service.MsgDuplicateTitle}}, decode[object](t, rec))

	rec = c.do(http.MethodPost, "/api/v1/posts/", alice, object{"content": "No title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, object{"title": []interface{}{service.MsgRequired}}, decode[object](t, rec))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts/", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Token "+alice)
	rec = httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListShowsActivePostsOnly(t *testing.T) {
	c := newClient(t)
	alice := c.writer("alice")
	c.createPost(alice, "Visible")
	hidden := c.createPost(alice, "Hidden")

	rec := c.do(http.MethodPatch, fmt.Sprintf("/api/v1/posts/%d/", hidden), alice, object{"active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, decode[object](t, rec)["active"])

	rec = c.do(http.MethodGet, "/api/v1/posts/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]object](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Visible", list[0]["title"])
	assert.Equal(t, "alice", list[0]["author_name"])
	assert.NotContains(t, list[0], "comments")
	assert.NotContains(t, list[0], "status")

	// still reachable by id
	rec = c.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d/", hidden), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListFilters(t *testing.T) {
	c := newClient(t)
	alice := c.writer("alice")
	bob := c.writer("bob")
	c.createPost(alice, "Go tips")
	c.createPost(bob, "Rust notes")

	rec := c.do(http.MethodGet, "/api/v1/posts/?title=GO", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]object](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Go tips", list[0]["title"])

	rec = c.do(http.MethodGet, "/api/v1/posts/?author_name=bo", "", nil)
	list = decode[[]object](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Rust notes", list[0]["title"])

	rec = c.do(http.MethodGet, "/api/v1/posts/?published_date_before=2000-01-01", "", nil)
	assert.Empty(t, decode[[]object](t, rec))

	rec = c.do(http.MethodGet, "/api/v1/posts/?published_date_after=soon", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, object{"published_date": []interface{}{service.MsgInvalidDate}}, decode[object](t, rec))
}

func TestRetrieveIncludesComments(t *testing.T) {
	c := newClient(t)
	alice := c.writer("alice")
	id := c.createPost(alice, "Hello")

	rec := c.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d/", id), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, decode[object](t, rec)["comments"])

	rec = c.do(http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments/", id), alice, object{"content": "First!"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", id), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[object](t, rec)
	assert.Equal(t, "draft", body["status"])
	comments := body["comments"].([]interface{})
	require.Len(t, comments, 1)
	assert.Equal(t, "First!", comments[0].(object)["content"])
	assert.Equal(t, "alice", comments[0].(object)["user"])
}

func TestRetrieveMissing(t *testing.T) {
	c := newClient(t)

	for _, url := range []string{"/api/v1/posts/999/", "/api/v1/posts/abc/"} {
		rec := c.do(http.MethodGet, url, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, url)
		assert.Equal(t, object{"detail": "Not found."}, decode[object](t, rec))
	}
}

func TestUpdatePost(t *testing.T) {
	c := newClient(t)
	alice := c.writer("alice")
	id := c.createPost(alice, "Hello")
	url := fmt.Sprintf("/api/v1/posts/%d/", id)

	rec := c.do(http.MethodPut, url, alice, object{"title": "Hello v2", "content": "Rewritten", "status": "published"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[object](t, rec)
	assert.Equal(t, "Hello v2", body["title"])
	assert.Equal(t, "published", body["status"])

	rec = c.do(http.MethodPut, url, alice, object{"title": "Only title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, object{"content": []interface{}{service.MsgRequired}}, decode[object](t, rec))

	rec = c.do(http.MethodPatch, url, alice, object{"content": "Patched"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello v2", decode[object](t, rec)["title"])
}

func TestImposterCannotModify(t *testing.T) {
	c := newClient(t)
	alice := c.writer("alice")
	mallory := c.writer("mallory")
	id := c.createPost(alice, "Hello")
	url := fmt.Sprintf("/api/v1/posts/%d/", id)

	rec := c.do(http.MethodPatch, url, mallory, object{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, object{"detail": service.MsgNotAllowed}, decode[object](t, rec))

	rec = c.do(http.MethodDelete, url, mallory, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = c.do(http.MethodDelete, url, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = c.do(http.MethodGet, url, "", nil)
	assert.Equal(t, "Hello", decode[object](t, rec)["title"])
}

func TestDeletePost(t *testing.T) {
	c := newClient(t)
	alice := c.writer("alice")
	id := c.createPost(alice, "Hello")
	url := fmt.Sprintf("/api/v1/posts/%d/", id)

	rec := c.do(http.MethodDelete, url, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = c.do(http.MethodGet, url, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodDelete, url, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComments(t *testing.T) {
	c := newClient(t)
	alice := c.writer("alice")
	bob := c.reader("bob")
	id := c.createPost(alice, "Hello")
	url := fmt.Sprintf("/api/v1/posts/%d/comments/", id)

	rec := c.do(http.MethodPost, url, bob, object{"content": "Nice one"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[object](t, rec)
	assert.Equal(t, "bob", body["user"])
	assert.NotEmpty(t, body["created"])
	assert.Equal(t, fmt.Sprintf("/api/v1/posts/%d/", id), rec.Header().Get("Location"))

	rec = c.do(http.MethodPost, url, "", object{"content": "Anonymous here"})
	require.Equal(t, http.StatusCreated, rec.Code)
	body = decode[object](t, rec)
	assert.Contains(t, body, "user")
	assert.Nil(t, body["user"])

	rec = c.do(http.MethodPost, url, "", object{"content": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[object](t, rec), "content")
}

func TestCommentOnInactiveOrMissingPost(t *testing.T) {
	c := newClient(t)
	alice := c.writer("alice")
	id := c.createPost(alice, "Hello")

	rec := c.do(http.MethodPatch, fmt.Sprintf("/api/v1/posts/%d/", id), alice, object{"active": false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments/", id), "", object{"content": "Hello?"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, object{"error": "Cannot comment on an inactive post."}, decode[object](t, rec))

	rec = c.do(http.MethodPost, "/api/v1/posts/999/comments/", "", object{"content": "Hello?"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, object{"error": "Post not found."}, decode[object](t, rec))
}

func TestInvalidToken(t *testing.T) {
	c := newClient(t)

	rec := c.do(http.MethodGet, "/api/v1/posts/", "nope", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, object{"detail": "Invalid token."}, decode[object](t, rec))
}

func TestVersionsShareData(t *testing.T) {
	c := newClient(t)
	alice := c.writer("alice")

	rec := c.do(http.MethodPost, "/api/v2/posts", alice, object{"title": "From v2", "content": "Body"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/api/v2/posts/"))

	rec = c.do(http.MethodGet, "/api/v1/posts", "", nil)
	list := decode[[]object](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "From v2", list[0]["title"])

	rec = c.do(http.MethodGet, "/api/v2/graphql", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = c.do(http.MethodGet, "/api/v2/docs/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocs(t *testing.T) {
	c := newClient(t)

	rec := c.do(http.MethodGet, "/api/v1/schema/?format=json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	schema := decode[object](t, rec)
	assert.Contains(t, schema, "openapi")
	assert.Equal(t, []interface{}{object{"url": "/api/v1"}}, schema["servers"])

	rec = c.do(http.MethodGet, "/api/v1/schema/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi:")

	for _, page := range []string{"/api/v1/docs/", "/api/v1/redoc/"} {
		rec = c.do(http.MethodGet, page, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, page)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "/api/v1/schema/?format=json")
	}
}

func TestGraphQL(t *testing.T) {
	c := newClient(t)
	alice := c.writer("alice")

	rec := c.do(http.MethodPost, "/api/v1/graphql", alice, object{
		"query": `mutation { createPost(input: {title: "Via GraphQL", content: "Body", status: PUBLISHED}) { id title authorName status } }`,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[object](t, rec)
	require.Nil(t, body["errors"], rec.Body.String())
	created := body["data"].(object)["createPost"].(object)
	assert.Equal(t, "Via GraphQL", created["title"])
	assert.Equal(t, "alice", created["authorName"])
	assert.Equal(t, "PUBLISHED", created["status"])

	rec = c.do(http.MethodGet, "/api/v1/posts/", "", nil)
	require.Len(t, decode[[]object](t, rec), 1)

	rec = c.do(http.MethodPost, "/api/v1/graphql", "", object{
		"query": `mutation { createPost(input: {title: "Anon", content: "Body"}) { id } }`,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	errs := decode[object](t, rec)["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, service.MsgLoginRequired, errs[0].(object)["message"])
}

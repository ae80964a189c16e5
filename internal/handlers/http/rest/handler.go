// Package rest serves the post and comment resources over JSON.
package rest

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gfdmit/blog-service/internal/auth"
	"github.com/gfdmit/blog-service/internal/repository"
	"github.com/gfdmit/blog-service/internal/service"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// postEndpoint binds an action to its success status and representation.
type postEndpoint struct {
	status int
	render func(repository.Post) interface{}
}

var postEndpoints = map[service.Action]postEndpoint{
	service.ActionList:     {status: http.StatusOK, render: func(p repository.Post) interface{} { return toPostListItem(p) }},
	service.ActionRetrieve: {status: http.StatusOK, render: func(p repository.Post) interface{} { return toPostDetail(p) }},
	service.ActionCreate:   {status: http.StatusCreated, render: func(p repository.Post) interface{} { return toPostWrite(p) }},
	service.ActionUpdate:   {status: http.StatusOK, render: func(p repository.Post) interface{} { return toPostDetail(p) }},
	service.ActionDelete:   {status: http.StatusNoContent},
}

// Register mounts the resource routes on group, with and without the
// trailing slash.
func (h *Handler) Register(group *gin.RouterGroup) {
	posts := group.Group("/posts")
	for _, suffix := range []string{"", "/"} {
		posts.GET(suffix, h.listPosts)
		posts.POST(suffix, h.createPost)
		posts.GET("/:id"+suffix, h.retrievePost)
		posts.PUT("/:id"+suffix, h.updatePost)
		posts.PATCH("/:id"+suffix, h.updatePost)
		posts.DELETE("/:id"+suffix, h.deletePost)
		posts.POST("/:id/comments"+suffix, h.createComment)
	}
}

func (h *Handler) listPosts(c *gin.Context) {
	var q service.PostQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	posts, err := h.svc.ListPosts(c.Request.Context(), q)
	if err != nil {
		renderError(c, err, detailNotFound)
		return
	}

	ep := postEndpoints[service.ActionList]
	out := make([]interface{}, 0, len(posts))
	for _, p := range posts {
		out = append(out, ep.render(p))
	}
	c.JSON(ep.status, out)
}

func (h *Handler) retrievePost(c *gin.Context) {
	id, ok := pathID(c, detailNotFound)
	if !ok {
		return
	}
	post, err := h.svc.GetPost(c.Request.Context(), id)
	if err != nil {
		renderError(c, err, detailNotFound)
		return
	}
	respond(c, service.ActionRetrieve, post)
}

func (h *Handler) createPost(c *gin.Context) {
	var in service.PostInput
	if !bindBody(c, &in) {
		return
	}

	post, err := h.svc.CreatePost(c.Request.Context(), auth.UserFrom(c.Request.Context()), in)
	if err != nil {
		renderError(c, err, detailNotFound)
		return
	}
	c.Header("Location", strings.TrimSuffix(c.Request.URL.Path, "/")+"/"+strconv.FormatInt(post.ID, 10)+"/")
	respond(c, service.ActionCreate, post)
}

func (h *Handler) updatePost(c *gin.Context) {
	id, ok := pathID(c, detailNotFound)
	if !ok {
		return
	}
	var in service.PostUpdate
	if !bindBody(c, &in) {
		return
	}

	partial := c.Request.Method == http.MethodPatch
	post, err := h.svc.UpdatePost(c.Request.Context(), auth.UserFrom(c.Request.Context()), id, in, partial)
	if err != nil {
		renderError(c, err, detailNotFound)
		return
	}
	respond(c, service.ActionUpdate, post)
}

func (h *Handler) deletePost(c *gin.Context) {
	id, ok := pathID(c, detailNotFound)
	if !ok {
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), auth.UserFrom(c.Request.Context()), id); err != nil {
		renderError(c, err, detailNotFound)
		return
	}
	c.Status(postEndpoints[service.ActionDelete].status)
}

func (h *Handler) createComment(c *gin.Context) {
	postID, ok := pathID(c, errorNotFound)
	if !ok {
		return
	}
	var in service.CommentInput
	if !bindBody(c, &in) {
		return
	}

	comment, err := h.svc.CreateComment(c.Request.Context(), auth.UserFrom(c.Request.Context()), postID, in)
	if err != nil {
		renderError(c, err, errorNotFound)
		return
	}
	// comments have no route of their own; point at the post that lists them.
	c.Header("Location", path.Dir(strings.TrimSuffix(c.Request.URL.Path, "/"))+"/")
	c.JSON(http.StatusCreated, toCommentItem(comment))
}

func respond(c *gin.Context, action service.Action, post repository.Post) {
	ep := postEndpoints[action]
	c.JSON(ep.status, ep.render(post))
}

// pathID parses :id. Anything that is not a positive integer cannot name a
// post, so it is answered like a missing one.
func pathID(c *gin.Context, notFound gin.H) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, notFound)
		return 0, false
	}
	return id, true
}

// bindBody decodes the JSON body into dst. An empty body is an empty object.
func bindBody(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	return true
}

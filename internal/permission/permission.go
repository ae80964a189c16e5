// Package permission holds the object-level access rules for posts.
package permission

import (
	"net/http"

	"github.com/gfdmit/blog-service/internal/repository"
)

// SafeMethod reports whether method only reads state.
func SafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// AuthorOrReadOnly grants safe methods to everyone and unsafe methods only to
// the user linked to the post's owning author. caller is nil for anonymous requests.
func AuthorOrReadOnly(method string, caller *repository.User, post repository.Post) bool {
	if SafeMethod(method) {
		return true
	}
	if caller == nil || post.Author.UserID == nil {
		return false
	}
	return *post.Author.UserID == caller.ID
}

// Package auth resolves API tokens to users. Tokens are stored hashed;
// the clear value is shown once when the user is created.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gfdmit/blog-service/internal/repository"
	"github.com/gin-gonic/gin"
)

var ErrInvalidToken = errors.New("invalid token")

type ctxKey struct{}

type Authenticator struct {
	repo repository.Repository
}

func New(repo repository.Repository) *Authenticator {
	return &Authenticator{repo: repo}
}

func NewToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func HashToken(token string) string {
	hasher := sha256.New()
	hasher.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(hasher.Sum(nil))
}

// Authenticate resolves an Authorization header value. A missing header or
// one using another scheme is an anonymous caller (nil user, nil error).
func (a *Authenticator) Authenticate(p context.Context, header string) (*repository.User, error) {
	parts := strings.Fields(header)
	if len(parts) == 0 || !isTokenScheme(parts[0]) {
		return nil, nil
	}
	if len(parts) != 2 {
		return nil, ErrInvalidToken
	}
	token := parts[1]

	user, err := a.repo.GetUserByTokenHash(p, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return &user, nil
}

func isTokenScheme(scheme string) bool {
	return strings.EqualFold(scheme, "Token") || strings.EqualFold(scheme, "Bearer")
}

// Middleware attaches the caller to the request context. Requests with a bad
// token are rejected; requests without one continue anonymously.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				c.Header("WWW-Authenticate", "Token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
				return
			}
			log.Println("[AUTH] authenticate:", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
			return
		}
		if user != nil {
			c.Request = c.Request.WithContext(WithUser(c.Request.Context(), user))
		}
		c.Next()
	}
}

func WithUser(p context.Context, user *repository.User) context.Context {
	return context.WithValue(p, ctxKey{}, user)
}

// UserFrom returns the authenticated caller or nil.
func UserFrom(p context.Context) *repository.User {
	user, _ := p.Value(ctxKey{}).(*repository.User)
	return user
}

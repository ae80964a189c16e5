package repository

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("repository: not found")
	ErrDuplicateTitle    = errors.New("repository: duplicate post title")
	ErrDuplicateEmail    = errors.New("repository: duplicate author email")
	ErrDuplicateUsername = errors.New("repository: duplicate username")
	ErrUserHasAuthor     = errors.New("repository: user already linked to an author")
)

type Repository interface {
	CreateUser(p context.Context, username string, tokenHash string) (User, error)
	GetUser(p context.Context, id int64) (User, error)
	GetUserByTokenHash(p context.Context, tokenHash string) (User, error)
	DeleteUser(p context.Context, id int64) error

	CreateAuthor(p context.Context, name string, email string, userID *int64) (Author, error)
	GetAuthor(p context.Context, id int64) (Author, error)
	GetAuthorByUser(p context.Context, userID int64) (Author, error)
	GetAuthors(p context.Context) ([]Author, error)
	DeleteAuthor(p context.Context, id int64) error

	GetPost(p context.Context, id int64) (Post, error)
	GetPosts(p context.Context, filter PostFilter) ([]Post, error)
	PostTitleExists(p context.Context, title string, excludeID int64) (bool, error)
	CreatePost(p context.Context, post Post) (Post, error)
	UpdatePost(p context.Context, post Post) (Post, error)
	DeletePost(p context.Context, id int64) error

	GetComments(p context.Context, postID int64) ([]Comment, error)
	CreateComment(p context.Context, comment Comment) (Comment, error)

	Close() error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns s into a LIKE pattern matching any value containing s
// literally. Queries using it must declare ESCAPE '\'.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Now is the timestamp source for published_date and created columns.
// Both drivers keep microsecond precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

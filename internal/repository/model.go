package repository

import (
	"fmt"
	"time"
)

type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	TokenHash string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) String() string {
	return u.Username
}

type Author struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	UserID *int64 `json:"user_id,omitempty"`
}

func (a Author) String() string {
	return a.Name
}

// Post carries its owning Author; Comments is only filled on single-post reads.
type Post struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	PublishedDate time.Time  `json:"published_date"`
	Status        PostStatus `json:"status"`
	Active        bool       `json:"active"`
	AuthorID      int64      `json:"author_id"`
	Author        Author     `json:"author"`
	Comments      []Comment  `json:"comments,omitempty"`
}

func (p Post) String() string {
	return p.Title
}

type Comment struct {
	ID       int64     `json:"id"`
	PostID   int64     `json:"post_id"`
	UserID   *int64    `json:"user_id,omitempty"`
	Username *string   `json:"username,omitempty"`
	Content  string    `json:"content"`
	Created  time.Time `json:"created"`
}

// Describe renders the comment the way the admin listing shows it.
func (c Comment) Describe(postTitle string) string {
	by := "Anonymous"
	if c.Username != nil {
		by = *c.Username
	}
	return fmt.Sprintf("Comment by %s on %s", by, postTitle)
}

// PostFilter narrows ListPosts. Zero values disable a criterion.
type PostFilter struct {
	ActiveOnly      bool
	Title           string
	AuthorName      string
	PublishedAfter  *time.Time
	PublishedBefore *time.Time
}

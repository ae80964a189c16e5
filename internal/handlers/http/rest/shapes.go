package rest

import (
	"time"

	"github.com/gfdmit/blog-service/internal/repository"
)

// Wire shapes of the post and comment resources. Each is built by a pure
// mapping function from the stored entity.

type PostListItem struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	PublishedDate time.Time `json:"published_date"`
	AuthorName    string    `json:"author_name"`
	Active        bool      `json:"active"`
}

type PostDetail struct {
	PostListItem
	Status   repository.PostStatus `json:"status"`
	Comments []CommentItem         `json:"comments"`
}

type PostWrite struct {
	ID            int64                 `json:"id"`
	Title         string                `json:"title"`
	Content       string                `json:"content"`
	PublishedDate time.Time             `json:"published_date"`
	AuthorName    string                `json:"author_name"`
	Status        repository.PostStatus `json:"status"`
}

type CommentItem struct {
	ID      int64     `json:"id"`
	Content string    `json:"content"`
	User    *string   `json:"user"`
	Created time.Time `json:"created"`
}

func toPostListItem(p repository.Post) PostListItem {
	return PostListItem{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		PublishedDate: p.PublishedDate,
		AuthorName:    p.Author.Name,
		Active:        p.Active,
	}
}

func toPostDetail(p repository.Post) PostDetail {
	comments := make([]CommentItem, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, toCommentItem(c))
	}
	return PostDetail{
		PostListItem: toPostListItem(p),
		Status:       p.Status,
		Comments:     comments,
	}
}

func toPostWrite(p repository.Post) PostWrite {
	return PostWrite{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		PublishedDate: p.PublishedDate,
		AuthorName:    p.Author.Name,
		Status:        p.Status,
	}
}

func toCommentItem(c repository.Comment) CommentItem {
	return CommentItem{
		ID:      c.ID,
		Content: c.Content,
		User:    c.Username,
		Created: c.Created,
	}
}

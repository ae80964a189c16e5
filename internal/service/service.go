package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gfdmit/blog-service/internal/permission"
	"github.com/gfdmit/blog-service/internal/repository"
	"github.com/go-playground/validator/v10"
)

type Service struct {
	repo     repository.Repository
	validate *validator.Validate
}

func New(repo repository.Repository) *Service {
	return &Service{repo: repo, validate: newValidator()}
}

// PostInput is the writable part of the create shape.
type PostInput struct {
	Title   *string `json:"title" validate:"required,min=1,max=200"`
	Content *string `json:"content" validate:"required,min=1"`
	Status  *string `json:"status" validate:"omitempty,oneof=draft published"`
}

// PostUpdate carries the fields a client may change on an existing post.
// Nil fields are left untouched on a partial update.
type PostUpdate struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content *string `json:"content" validate:"omitempty,min=1"`
	Status  *string `json:"status" validate:"omitempty,oneof=draft published"`
	Active  *bool   `json:"active"`
}

type CommentInput struct {
	Content *string `json:"content" validate:"required,min=2,max=3000"`
}

// Text fields are compared and stored without surrounding whitespace.

func (in *PostInput) trim() {
	in.Title = trimmed(in.Title)
	in.Content = trimmed(in.Content)
}

func (in *PostUpdate) trim() {
	in.Title = trimmed(in.Title)
	in.Content = trimmed(in.Content)
}

func (in *CommentInput) trim() {
	in.Content = trimmed(in.Content)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func (svc *Service) ListPosts(p context.Context, q PostQuery) ([]repository.Post, error) {
	filter, err := q.filter(ActionList.Visibility())
	if err != nil {
		return nil, err
	}
	posts, err := svc.repo.GetPosts(p, filter)
	if err != nil {
		return nil, fmt.Errorf("repo.GetPosts: %w", err)
	}
	return posts, nil
}

// GetPost returns any post, active or not, with its comments.
func (svc *Service) GetPost(p context.Context, id int64) (repository.Post, error) {
	post, err := svc.getPost(p, id)
	if err != nil {
		return repository.Post{}, err
	}
	return svc.withComments(p, post)
}

func (svc *Service) CreatePost(p context.Context, caller *repository.User, in PostInput) (repository.Post, error) {
	if caller == nil {
		return repository.Post{}, &PermissionError{Reason: MsgLoginRequired}
	}
	author, err := svc.repo.GetAuthorByUser(p, caller.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Post{}, &PermissionError{Reason: MsgNoAuthorProfile}
		}
		return repository.Post{}, fmt.Errorf("repo.GetAuthorByUser: %w", err)
	}

	in.trim()
	if err := svc.check(in); err != nil {
		return repository.Post{}, err
	}
	if err := svc.uniqueTitle(p, *in.Title, 0); err != nil {
		return repository.Post{}, err
	}

	post := repository.Post{
		Title:    *in.Title,
		Content:  *in.Content,
		Status:   repository.StatusDraft,
		Active:   true,
		AuthorID: author.ID,
	}
	if in.Status != nil {
		post.Status = repository.PostStatus(*in.Status)
	}

	created, err := svc.repo.CreatePost(p, post)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTitle) {
			return repository.Post{}, fieldError("title", MsgDuplicateTitle)
		}
		return repository.Post{}, fmt.Errorf("repo.CreatePost: %w", err)
	}
	return created, nil
}

// UpdatePost applies in to the post. With partial unset every writable text
// field must be present, as for PUT.
func (svc *Service) UpdatePost(p context.Context, caller *repository.User, id int64, in PostUpdate, partial bool) (repository.Post, error) {
	post, err := svc.getPost(p, id)
	if err != nil {
		return repository.Post{}, err
	}
	if !permission.AuthorOrReadOnly(ActionUpdate.Method(), caller, post) {
		return repository.Post{}, &PermissionError{Reason: MsgNotAllowed}
	}

	in.trim()
	if err := svc.check(in); err != nil {
		return repository.Post{}, err
	}
	if !partial {
		verr := &ValidationError{}
		if in.Title == nil {
			verr.add("title", MsgRequired)
		}
		if in.Content == nil {
			verr.add("content", MsgRequired)
		}
		if len(verr.Fields) > 0 {
			return repository.Post{}, verr
		}
	}

	if in.Title != nil && *in.Title != post.Title {
		if err := svc.uniqueTitle(p, *in.Title, post.ID); err != nil {
			return repository.Post{}, err
		}
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Status != nil {
		post.Status = repository.PostStatus(*in.Status)
	}
	if in.Active != nil {
		post.Active = *in.Active
	}

	updated, err := svc.repo.UpdatePost(p, post)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateTitle):
			return repository.Post{}, fieldError("title", MsgDuplicateTitle)
		case errors.Is(err, repository.ErrNotFound):
			return repository.Post{}, ErrPostNotFound
		}
		return repository.Post{}, fmt.Errorf("repo.UpdatePost: %w", err)
	}
	return svc.withComments(p, updated)
}

func (svc *Service) DeletePost(p context.Context, caller *repository.User, id int64) error {
	post, err := svc.getPost(p, id)
	if err != nil {
		return err
	}
	if !permission.AuthorOrReadOnly(ActionDelete.Method(), caller, post) {
		return &PermissionError{Reason: MsgNotAllowed}
	}

	if err := svc.repo.DeletePost(p, post.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("repo.DeletePost: %w", err)
	}
	return nil
}

// CreateComment is open to anonymous callers; the post must exist and be active.
func (svc *Service) CreateComment(p context.Context, caller *repository.User, postID int64, in CommentInput) (repository.Comment, error) {
	post, err := svc.getPost(p, postID)
	if err != nil {
		return repository.Comment{}, err
	}
	if !post.Active {
		return repository.Comment{}, ErrInactivePost
	}
	in.trim()
	if err := svc.check(in); err != nil {
		return repository.Comment{}, err
	}

	comment := repository.Comment{PostID: post.ID, Content: *in.Content}
	if caller != nil {
		comment.UserID = &caller.ID
	}

	created, err := svc.repo.CreateComment(p, comment)
	if err != nil {
		return repository.Comment{}, fmt.Errorf("repo.CreateComment: %w", err)
	}
	return created, nil
}

func (svc *Service) getPost(p context.Context, id int64) (repository.Post, error) {
	post, err := svc.repo.GetPost(p, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Post{}, ErrPostNotFound
		}
		return repository.Post{}, fmt.Errorf("repo.GetPost: %w", err)
	}
	return post, nil
}

func (svc *Service) withComments(p context.Context, post repository.Post) (repository.Post, error) {
	comments, err := svc.repo.GetComments(p, post.ID)
	if err != nil {
		return repository.Post{}, fmt.Errorf("repo.GetComments: %w", err)
	}
	post.Comments = comments
	return post, nil
}

// uniqueTitle is a read-then-write check; the unique index on posts.title
// catches whatever slips between the check and the write.
func (svc *Service) uniqueTitle(p context.Context, title string, excludeID int64) error {
	exists, err := svc.repo.PostTitleExists(p, title, excludeID)
	if err != nil {
		return fmt.Errorf("repo.PostTitleExists: %w", err)
	}
	if exists {
		return fieldError("title", MsgDuplicateTitle)
	}
	return nil
}

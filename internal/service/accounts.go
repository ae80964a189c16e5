package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gfdmit/blog-service/internal/auth"
	"github.com/gfdmit/blog-service/internal/repository"
)

// Account administration used by the CLI. Users and authors are created out
// of band, never through the public API.

type UserInput struct {
	Username string `json:"username" validate:"required,max=150"`
}

type AuthorInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Email  string `json:"email" validate:"required,email,max=254"`
	UserID *int64 `json:"user_id"`
}

// CreateUser returns the new user and its clear-text API token.
func (svc *Service) CreateUser(p context.Context, in UserInput) (repository.User, string, error) {
	if err := svc.check(in); err != nil {
		return repository.User{}, "", err
	}

	token, err := auth.NewToken()
	if err != nil {
		return repository.User{}, "", err
	}
	user, err := svc.repo.CreateUser(p, in.Username, auth.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return repository.User{}, "", fieldError("username", "A user with that username already exists.")
		}
		return repository.User{}, "", fmt.Errorf("repo.CreateUser: %w", err)
	}
	return user, token, nil
}

// DeleteUser keeps the user's author profile and comments, unlinked.
func (svc *Service) DeleteUser(p context.Context, id int64) error {
	if err := svc.repo.DeleteUser(p, id); err != nil {
		return fmt.Errorf("repo.DeleteUser: %w", err)
	}
	return nil
}

func (svc *Service) CreateAuthor(p context.Context, in AuthorInput) (repository.Author, error) {
	if err := svc.check(in); err != nil {
		return repository.Author{}, err
	}
	if in.UserID != nil {
		if _, err := svc.repo.GetUser(p, *in.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return repository.Author{}, fieldError("user_id", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *in.UserID))
			}
			return repository.Author{}, fmt.Errorf("repo.GetUser: %w", err)
		}
	}

	author, err := svc.repo.CreateAuthor(p, in.Name, in.Email, in.UserID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return repository.Author{}, fieldError("email", "author with this email already exists.")
		case errors.Is(err, repository.ErrUserHasAuthor):
			return repository.Author{}, fieldError("user_id", "This user already has an author profile.")
		}
		return repository.Author{}, fmt.Errorf("repo.CreateAuthor: %w", err)
	}
	return author, nil
}

func (svc *Service) ListAuthors(p context.Context) ([]repository.Author, error) {
	authors, err := svc.repo.GetAuthors(p)
	if err != nil {
		return nil, fmt.Errorf("repo.GetAuthors: %w", err)
	}
	return authors, nil
}

// DeleteAuthor removes the author and, by cascade, its posts and their comments.
func (svc *Service) DeleteAuthor(p context.Context, id int64) error {
	if err := svc.repo.DeleteAuthor(p, id); err != nil {
		return fmt.Errorf("repo.DeleteAuthor: %w", err)
	}
	return nil
}

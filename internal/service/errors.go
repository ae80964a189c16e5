package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrInactivePost = errors.New("cannot comment on an inactive post")
)

const (
	MsgLoginRequired   = "You must be logged in to create a post."
	MsgNoAuthorProfile = "You do not have an author profile to create a post."
	MsgNotAllowed      = "You do not have permission to perform this action."
	MsgDuplicateTitle  = "A post with this title already exists."
	MsgRequired        = "This field is required."
	MsgBlank           = "This field may not be blank."
	MsgInvalidDate     = "Enter a valid date."
)

// PermissionError is returned when the caller may not perform an operation.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return e.Reason
}

// ValidationError maps field names (as they appear on the wire) to messages.
type ValidationError struct {
	Fields map[string][]string
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

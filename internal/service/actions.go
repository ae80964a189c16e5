package service

import (
	"net/http"

	"github.com/gfdmit/blog-service/internal/repository"
)

// Action enumerates the post operations. Each one has a fixed visibility rule
// and the HTTP method the access policy evaluates it as.
type Action int

const (
	ActionList Action = iota + 1
	ActionRetrieve
	ActionCreate
	ActionUpdate
	ActionDelete
)

type actionRule struct {
	name       string
	method     string
	activeOnly bool
}

var actionRules = map[Action]actionRule{
	ActionList:     {name: "list", method: http.MethodGet, activeOnly: true},
	ActionRetrieve: {name: "retrieve", method: http.MethodGet},
	ActionCreate:   {name: "create", method: http.MethodPost},
	ActionUpdate:   {name: "update", method: http.MethodPatch},
	ActionDelete:   {name: "delete", method: http.MethodDelete},
}

func (a Action) String() string {
	if r, ok := actionRules[a]; ok {
		return r.name
	}
	return "unknown"
}

func (a Action) Method() string {
	return actionRules[a].method
}

// Visibility is the baseline filter of the posts an action may see.
func (a Action) Visibility() repository.PostFilter {
	return repository.PostFilter{ActiveOnly: actionRules[a].activeOnly}
}

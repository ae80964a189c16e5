package graphql

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gfdmit/blog-service/internal/service"
	"github.com/graphql-go/graphql"
)

type gqlHandler struct {
	svc *service.Service

	schema graphql.Schema
}

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func New(svc *service.Service) (*gqlHandler, error) {
	gh := &gqlHandler{
		svc: svc,
	}

	if err := gh.initSchema(); err != nil {
		return nil, err
	}

	return gh, nil
}

func (gh *gqlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := request{}

	switch r.Method {
	case http.MethodGet:
		req.Query = r.URL.Query().Get("query")
		req.OperationName = r.URL.Query().Get("operationName")
		if vars := r.URL.Query().Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				writeError(w, http.StatusBadRequest, "variables must be a JSON object")
				return
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "request body must be a JSON object")
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	res := graphql.Do(graphql.Params{
		Context:        r.Context(),
		Schema:         gh.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Println("[GRAPHQL] encode response:", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"errors": []map[string]string{{"message": msg}},
	})
}

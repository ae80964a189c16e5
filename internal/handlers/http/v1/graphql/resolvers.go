package graphql

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/gfdmit/blog-service/internal/auth"
	"github.com/gfdmit/blog-service/internal/repository"
	"github.com/gfdmit/blog-service/internal/service"
	"github.com/graphql-go/graphql"
)

func getPostQuery(gh *gqlHandler, postType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: postType,
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id, err := parseID(p.Args["id"])
			if err != nil {
				return nil, err
			}
			post, err := gh.svc.GetPost(p.Context, id)
			if err != nil {
				return nil, publicError(err)
			}
			return postToMap(post), nil
		},
	}
}

func getPostsQuery(gh *gqlHandler, postType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(postType),
		Args: graphql.FieldConfigArgument{
			"title":               &graphql.ArgumentConfig{Type: graphql.String},
			"authorName":          &graphql.ArgumentConfig{Type: graphql.String},
			"publishedDateAfter":  &graphql.ArgumentConfig{Type: graphql.String},
			"publishedDateBefore": &graphql.ArgumentConfig{Type: graphql.String},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			q := service.PostQuery{
				Title:           stringArg(p.Args, "title"),
				AuthorName:      stringArg(p.Args, "authorName"),
				PublishedAfter:  stringArg(p.Args, "publishedDateAfter"),
				PublishedBefore: stringArg(p.Args, "publishedDateBefore"),
			}
			posts, err := gh.svc.ListPosts(p.Context, q)
			if err != nil {
				return nil, publicError(err)
			}
			out := make([]map[string]interface{}, 0, len(posts))
			for _, post := range posts {
				out = append(out, postToMap(post))
			}
			return out, nil
		},
	}
}

func createPostMutation(gh *gqlHandler, postType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: postType,
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(graphql.NewInputObject(
					graphql.InputObjectConfig{
						Name: "CreatePostInput",
						Fields: graphql.InputObjectConfigFieldMap{
							"title":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
							"content": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
							"status":  &graphql.InputObjectFieldConfig{Type: PostStatus},
						},
					},
				)),
			},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			input, _ := p.Args["input"].(map[string]interface{})
			in := service.PostInput{
				Title:   stringPtr(input, "title"),
				Content: stringPtr(input, "content"),
				Status:  stringPtr(input, "status"),
			}
			post, err := gh.svc.CreatePost(p.Context, auth.UserFrom(p.Context), in)
			if err != nil {
				return nil, publicError(err)
			}
			return postToMap(post), nil
		},
	}
}

func updatePostMutation(gh *gqlHandler, postType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: postType,
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			"input": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(graphql.NewInputObject(
					graphql.InputObjectConfig{
						Name: "UpdatePostInput",
						Fields: graphql.InputObjectConfigFieldMap{
							"title":   &graphql.InputObjectFieldConfig{Type: graphql.String},
							"content": &graphql.InputObjectFieldConfig{Type: graphql.String},
							"status":  &graphql.InputObjectFieldConfig{Type: PostStatus},
							"active":  &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
						},
					},
				)),
			},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id, err := parseID(p.Args["id"])
			if err != nil {
				return nil, err
			}
			input, _ := p.Args["input"].(map[string]interface{})
			in := service.PostUpdate{
				Title:   stringPtr(input, "title"),
				Content: stringPtr(input, "content"),
				Status:  stringPtr(input, "status"),
			}
			if active, ok := input["active"].(bool); ok {
				in.Active = &active
			}
			post, err := gh.svc.UpdatePost(p.Context, auth.UserFrom(p.Context), id, in, true)
			if err != nil {
				return nil, publicError(err)
			}
			return postToMap(post), nil
		},
	}
}

func deletePostMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Boolean,
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id, err := parseID(p.Args["id"])
			if err != nil {
				return nil, err
			}
			if err := gh.svc.DeletePost(p.Context, auth.UserFrom(p.Context), id); err != nil {
				return nil, publicError(err)
			}
			return true, nil
		},
	}
}

func createCommentMutation(gh *gqlHandler, commentType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: commentType,
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(graphql.NewInputObject(
					graphql.InputObjectConfig{
						Name: "CreateCommentInput",
						Fields: graphql.InputObjectConfigFieldMap{
							"postId":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
							"content": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
						},
					},
				)),
			},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			input, _ := p.Args["input"].(map[string]interface{})
			postID, err := parseID(input["postId"])
			if err != nil {
				return nil, err
			}
			in := service.CommentInput{Content: stringPtr(input, "content")}
			comment, err := gh.svc.CreateComment(p.Context, auth.UserFrom(p.Context), postID, in)
			if err != nil {
				return nil, publicError(err)
			}
			return commentToMap(comment), nil
		},
	}
}

func postToMap(post repository.Post) map[string]interface{} {
	comments := make([]map[string]interface{}, 0, len(post.Comments))
	for _, c := range post.Comments {
		comments = append(comments, commentToMap(c))
	}
	return map[string]interface{}{
		"id":            strconv.FormatInt(post.ID, 10),
		"title":         post.Title,
		"content":       post.Content,
		"publishedDate": post.PublishedDate,
		"authorName":    post.Author.Name,
		"active":        post.Active,
		"status":        string(post.Status),
		"comments":      comments,
	}
}

func commentToMap(c repository.Comment) map[string]interface{} {
	var user interface{}
	if c.Username != nil {
		user = *c.Username
	}
	return map[string]interface{}{
		"id":      strconv.FormatInt(c.ID, 10),
		"content": c.Content,
		"user":    user,
		"created": c.Created,
	}
}

// publicError keeps the message a REST client would see for the same failure.
func publicError(err error) error {
	var (
		verr *service.ValidationError
		perr *service.PermissionError
	)
	switch {
	case errors.As(err, &verr):
		return verr
	case errors.As(err, &perr):
		return perr
	case errors.Is(err, service.ErrPostNotFound):
		return errors.New("Post not found.")
	case errors.Is(err, service.ErrInactivePost):
		return errors.New("Cannot comment on an inactive post.")
	}
	log.Println("[GRAPHQL] resolve:", err)
	return errors.New("internal server error")
}

func parseID(v interface{}) (int64, error) {
	s, _ := v.(string)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func stringPtr(args map[string]interface{}, key string) *string {
	s, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &s
}

package graphql

import (
	"time"

	"github.com/graphql-go/graphql"
)

var DateTime = graphql.NewScalar(
	graphql.ScalarConfig{
		Name:        "DateTime",
		Description: "DateTime scalar type",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v.Format(time.RFC3339Nano)
			case *time.Time:
				if v == nil {
					return nil
				}
				return v.Format(time.RFC3339Nano)
			default:
				return nil
			}
		},
	},
)

var PostStatus = graphql.NewEnum(
	graphql.EnumConfig{
		Name: "PostStatus",
		Values: graphql.EnumValueConfigMap{
			"DRAFT":     &graphql.EnumValueConfig{Value: "draft"},
			"PUBLISHED": &graphql.EnumValueConfig{Value: "published"},
		},
	},
)

func (gh *gqlHandler) initSchema() error {
	commentType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Comment",
			Fields: graphql.Fields{
				"id":      &graphql.Field{Type: graphql.ID},
				"content": &graphql.Field{Type: graphql.String},
				"user":    &graphql.Field{Type: graphql.String},
				"created": &graphql.Field{Type: DateTime},
			},
		},
	)

	postType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Post",
			Fields: graphql.Fields{
				"id":            &graphql.Field{Type: graphql.ID},
				"title":         &graphql.Field{Type: graphql.String},
				"content":       &graphql.Field{Type: graphql.String},
				"publishedDate": &graphql.Field{Type: DateTime},
				"authorName":    &graphql.Field{Type: graphql.String},
				"active":        &graphql.Field{Type: graphql.Boolean},
				"status":        &graphql.Field{Type: PostStatus},
				"comments":      &graphql.Field{Type: graphql.NewList(commentType)},
			},
		},
	)

	queryType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"post":  getPostQuery(gh, postType),
				"posts": getPostsQuery(gh, postType),
			},
		},
	)

	mutationType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Mutation",
			Fields: graphql.Fields{
				"createPost":    createPostMutation(gh, postType),
				"updatePost":    updatePostMutation(gh, postType),
				"deletePost":    deletePostMutation(gh),
				"createComment": createCommentMutation(gh, commentType),
			},
		},
	)

	schemaConfig := graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	}

	schema, err := graphql.NewSchema(schemaConfig)
	if err != nil {
		return err
	}
	gh.schema = schema

	return nil
}

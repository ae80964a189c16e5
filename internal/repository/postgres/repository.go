package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gfdmit/blog-service/config"
	"github.com/gfdmit/blog-service/internal/repository"
	"github.com/gfdmit/blog-service/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const uniqueViolation = "23505"

type postgresRepository struct {
	db *sqlx.DB
}

// New connects, applies pending migrations and returns the repository.
func New(conf config.Postgres) (*postgresRepository, error) {
	db, err := Connect(conf)
	if err != nil {
		return nil, err
	}

	m, err := NewMigrator(db, conf)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Println("[REPOSITORY] applying migrations...")
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("[REPOSITORY] nothing to migrate")
		} else {
			db.Close()
			return nil, fmt.Errorf("error when migrating: %w", err)
		}
	} else {
		log.Println("[REPOSITORY] migrated successfully!")
	}

	return &postgresRepository{db: db}, nil
}

func Connect(conf config.Postgres) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", conf.DSN())
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.Timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

// NewMigrator reads migrations from conf.Migrations when set, otherwise from
// the files embedded in the binary.
func NewMigrator(db *sqlx.DB, conf config.Postgres) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres.WithInstance: %w", err)
	}

	if conf.Migrations != "" {
		m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%v", conf.Migrations), conf.DB, driver)
		if err != nil {
			return nil, fmt.Errorf("migrate.NewWithDatabaseInstance: %w", err)
		}
		return m, nil
	}

	files, err := migrations.For(config.DriverPostgres)
	if err != nil {
		return nil, err
	}
	source, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("iofs.New: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, conf.DB, driver)
	if err != nil {
		return nil, fmt.Errorf("migrate.NewWithInstance: %w", err)
	}
	return m, nil
}

func (pr postgresRepository) Close() error {
	return pr.db.Close()
}

type userRow struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	TokenHash string    `db:"token_hash"`
	CreatedAt time.Time `db:"created_at"`
}

func (r userRow) model() repository.User {
	return repository.User{ID: r.ID, Username: r.Username, TokenHash: r.TokenHash, CreatedAt: r.CreatedAt}
}

type authorRow struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	Email  string `db:"email"`
	UserID *int64 `db:"user_id"`
}

func (r authorRow) model() repository.Author {
	return repository.Author{ID: r.ID, Name: r.Name, Email: r.Email, UserID: r.UserID}
}

type postRow struct {
	ID            int64     `db:"id"`
	Title         string    `db:"title"`
	Content       string    `db:"content"`
	PublishedDate time.Time `db:"published_date"`
	Status        string    `db:"status"`
	Active        bool      `db:"active"`
	AuthorID      int64     `db:"author_id"`
	AuthorName    string    `db:"author_name"`
	AuthorEmail   string    `db:"author_email"`
	AuthorUserID  *int64    `db:"author_user_id"`
}

func (r postRow) model() repository.Post {
	return repository.Post{
		ID:            r.ID,
		Title:         r.Title,
		Content:       r.Content,
		PublishedDate: r.PublishedDate.UTC(),
		Status:        repository.PostStatus(r.Status),
		Active:        r.Active,
		AuthorID:      r.AuthorID,
		Author: repository.Author{
			ID:     r.AuthorID,
			Name:   r.AuthorName,
			Email:  r.AuthorEmail,
			UserID: r.AuthorUserID,
		},
	}
}

type commentRow struct {
	ID       int64     `db:"id"`
	PostID   int64     `db:"post_id"`
	UserID   *int64    `db:"user_id"`
	Username *string   `db:"username"`
	Content  string    `db:"content"`
	Created  time.Time `db:"created"`
}

func (r commentRow) model() repository.Comment {
	return repository.Comment{
		ID:       r.ID,
		PostID:   r.PostID,
		UserID:   r.UserID,
		Username: r.Username,
		Content:  r.Content,
		Created:  r.Created.UTC(),
	}
}

const selectPost = `
SELECT p.id, p.title, p.content, p.published_date, p.status, p.active, p.author_id,
       a.name AS author_name, a.email AS author_email, a.user_id AS author_user_id
FROM blog.posts p
JOIN blog.authors a ON a.id = p.author_id`

const selectComment = `
SELECT c.id, c.post_id, c.user_id, u.username, c.content, c.created
FROM blog.comments c
LEFT JOIN blog.users u ON u.id = c.user_id`

func (pr postgresRepository) CreateUser(p context.Context, username string, tokenHash string) (repository.User, error) {
	row := userRow{}
	err := pr.db.GetContext(p, &row,
		"INSERT INTO blog.users (username, token_hash, created_at) VALUES ($1, $2, $3) RETURNING *",
		username, tokenHash, repository.Now())
	if err != nil {
		return repository.User{}, translate(err)
	}
	return row.model(), nil
}

func (pr postgresRepository) GetUser(p context.Context, id int64) (repository.User, error) {
	row := userRow{}
	if err := pr.db.GetContext(p, &row, "SELECT * FROM blog.users WHERE id = $1", id); err != nil {
		return repository.User{}, translate(err)
	}
	return row.model(), nil
}

func (pr postgresRepository) GetUserByTokenHash(p context.Context, tokenHash string) (repository.User, error) {
	row := userRow{}
	if err := pr.db.GetContext(p, &row, "SELECT * FROM blog.users WHERE token_hash = $1", tokenHash); err != nil {
		return repository.User{}, translate(err)
	}
	return row.model(), nil
}

func (pr postgresRepository) DeleteUser(p context.Context, id int64) error {
	return pr.deleteByID(p, "DELETE FROM blog.users WHERE id = $1", id)
}

func (pr postgresRepository) CreateAuthor(p context.Context, name string, email string, userID *int64) (repository.Author, error) {
	row := authorRow{}
	err := pr.db.GetContext(p, &row,
		"INSERT INTO blog.authors (name, email, user_id) VALUES ($1, $2, $3) RETURNING *",
		name, email, userID)
	if err != nil {
		return repository.Author{}, translate(err)
	}
	return row.model(), nil
}

func (pr postgresRepository) GetAuthor(p context.Context, id int64) (repository.Author, error) {
	row := authorRow{}
	if err := pr.db.GetContext(p, &row, "SELECT * FROM blog.authors WHERE id = $1", id); err != nil {
		return repository.Author{}, translate(err)
	}
	return row.model(), nil
}

func (pr postgresRepository) GetAuthorByUser(p context.Context, userID int64) (repository.Author, error) {
	row := authorRow{}
	if err := pr.db.GetContext(p, &row, "SELECT * FROM blog.authors WHERE user_id = $1", userID); err != nil {
		return repository.Author{}, translate(err)
	}
	return row.model(), nil
}

func (pr postgresRepository) GetAuthors(p context.Context) ([]repository.Author, error) {
	rows := []authorRow{}
	if err := pr.db.SelectContext(p, &rows, "SELECT * FROM blog.authors ORDER BY id"); err != nil {
		return nil, err
	}
	authors := make([]repository.Author, 0, len(rows))
	for _, row := range rows {
		authors = append(authors, row.model())
	}
	return authors, nil
}

func (pr postgresRepository) DeleteAuthor(p context.Context, id int64) error {
	return pr.deleteByID(p, "DELETE FROM blog.authors WHERE id = $1", id)
}

func (pr postgresRepository) GetPost(p context.Context, id int64) (repository.Post, error) {
	row := postRow{}
	if err := pr.db.GetContext(p, &row, selectPost+" WHERE p.id = $1", id); err != nil {
		return repository.Post{}, translate(err)
	}
	return row.model(), nil
}

func (pr postgresRepository) GetPosts(p context.Context, filter repository.PostFilter) ([]repository.Post, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.ActiveOnly {
		where = append(where, "p.active")
	}
	if filter.Title != "" {
		where = append(where, `p.title ILIKE ? ESCAPE '\'`)
		args = append(args, repository.ContainsPattern(filter.Title))
	}
	if filter.AuthorName != "" {
		where = append(where, `a.name ILIKE ? ESCAPE '\'`)
		args = append(args, repository.ContainsPattern(filter.AuthorName))
	}
	if filter.PublishedAfter != nil {
		where = append(where, "p.published_date >= ?")
		args = append(args, *filter.PublishedAfter)
	}
	if filter.PublishedBefore != nil {
		where = append(where, "p.published_date <= ?")
		args = append(args, *filter.PublishedBefore)
	}

	query := selectPost
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.id"

	rows := []postRow{}
	if err := pr.db.SelectContext(p, &rows, pr.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	posts := make([]repository.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.model())
	}
	return posts, nil
}

func (pr postgresRepository) PostTitleExists(p context.Context, title string, excludeID int64) (bool, error) {
	var exists bool
	err := pr.db.GetContext(p, &exists,
		"SELECT EXISTS (SELECT 1 FROM blog.posts WHERE title = $1 AND id <> $2)", title, excludeID)
	return exists, err
}

func (pr postgresRepository) CreatePost(p context.Context, post repository.Post) (repository.Post, error) {
	var postID int64
	err := pr.db.QueryRowContext(p,
		`INSERT INTO blog.posts (title, content, published_date, author_id, status, active)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		post.Title, post.Content, repository.Now(), post.AuthorID, string(post.Status), post.Active,
	).Scan(&postID)
	if err != nil {
		return repository.Post{}, translate(err)
	}
	return pr.GetPost(p, postID)
}

func (pr postgresRepository) UpdatePost(p context.Context, post repository.Post) (repository.Post, error) {
	res, err := pr.db.ExecContext(p,
		"UPDATE blog.posts SET title = $1, content = $2, status = $3, active = $4 WHERE id = $5",
		post.Title, post.Content, string(post.Status), post.Active, post.ID)
	if err != nil {
		return repository.Post{}, translate(err)
	}
	if err := affected(res); err != nil {
		return repository.Post{}, err
	}
	return pr.GetPost(p, post.ID)
}

func (pr postgresRepository) DeletePost(p context.Context, id int64) error {
	return pr.deleteByID(p, "DELETE FROM blog.posts WHERE id = $1", id)
}

func (pr postgresRepository) GetComments(p context.Context, postID int64) ([]repository.Comment, error) {
	rows := []commentRow{}
	err := pr.db.SelectContext(p, &rows, selectComment+" WHERE c.post_id = $1 ORDER BY c.created, c.id", postID)
	if err != nil {
		return nil, err
	}
	comments := make([]repository.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.model())
	}
	return comments, nil
}

func (pr postgresRepository) CreateComment(p context.Context, comment repository.Comment) (repository.Comment, error) {
	var commentID int64
	err := pr.db.QueryRowContext(p,
		"INSERT INTO blog.comments (post_id, user_id, content, created) VALUES ($1, $2, $3, $4) RETURNING id",
		comment.PostID, comment.UserID, comment.Content, repository.Now(),
	).Scan(&commentID)
	if err != nil {
		return repository.Comment{}, translate(err)
	}

	row := commentRow{}
	if err := pr.db.GetContext(p, &row, selectComment+" WHERE c.id = $1", commentID); err != nil {
		return repository.Comment{}, translate(err)
	}
	return row.model(), nil
}

func (pr postgresRepository) deleteByID(p context.Context, query string, id int64) error {
	res, err := pr.db.ExecContext(p, query, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case "idx_posts_title_unique":
			return repository.ErrDuplicateTitle
		case "authors_email_key":
			return repository.ErrDuplicateEmail
		case "authors_user_id_key":
			return repository.ErrUserHasAuthor
		case "users_username_key":
			return repository.ErrDuplicateUsername
		}
	}
	return err
}

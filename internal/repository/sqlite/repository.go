// Package sqlite is the embedded repository used for local runs and tests.
// Timestamps are stored as unix microseconds.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gfdmit/blog-service/config"
	"github.com/gfdmit/blog-service/internal/repository"
	"github.com/gfdmit/blog-service/migrations"
	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type sqliteRepository struct {
	db *sqlx.DB
}

// Open opens the database at path (":memory:" for a private in-memory
// database) and applies pending migrations.
func Open(path string) (*sqliteRepository, error) {
	db, err := Connect(path)
	if err != nil {
		return nil, err
	}

	m, err := NewMigrator(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("error when migrating: %w", err)
	}

	return &sqliteRepository{db: db}, nil
}

func Connect(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open: %w", err)
	}
	// one connection: in-memory databases live and die with it, and the
	// foreign_keys pragma is per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

func NewMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	driver, err := sqlitemigrate.WithInstance(db.DB, &sqlitemigrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlite.WithInstance: %w", err)
	}
	files, err := migrations.For(config.DriverSQLite)
	if err != nil {
		return nil, err
	}
	source, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("iofs.New: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate.NewWithInstance: %w", err)
	}
	return m, nil
}

func (sr sqliteRepository) Close() error {
	return sr.db.Close()
}

func fromMicro(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

type userRow struct {
	ID        int64  `db:"id"`
	Username  string `db:"username"`
	TokenHash string `db:"token_hash"`
	CreatedAt int64  `db:"created_at"`
}

func (r userRow) model() repository.User {
	return repository.User{ID: r.ID, Username: r.Username, TokenHash: r.TokenHash, CreatedAt: fromMicro(r.CreatedAt)}
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
	ID            int64  `db:"id"`
	Title         string `db:"title"`
	Content       string `db:"content"`
	PublishedDate int64  `db:"published_date"`
	Status        string `db:"status"`
	Active        bool   `db:"active"`
	AuthorID      int64  `db:"author_id"`
	AuthorName    string `db:"author_name"`
	AuthorEmail   string `db:"author_email"`
	AuthorUserID  *int64 `db:"author_user_id"`
}

func (r postRow) model() repository.Post {
	return repository.Post{
		ID:            r.ID,
		Title:         r.Title,
		Content:       r.Content,
		PublishedDate: fromMicro(r.PublishedDate),
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
	ID       int64   `db:"id"`
	PostID   int64   `db:"post_id"`
	UserID   *int64  `db:"user_id"`
	Username *string `db:"username"`
	Content  string  `db:"content"`
	Created  int64   `db:"created"`
}

func (r commentRow) model() repository.Comment {
	return repository.Comment{
		ID:       r.ID,
		PostID:   r.PostID,
		UserID:   r.UserID,
		Username: r.Username,
		Content:  r.Content,
		Created:  fromMicro(r.Created),
	}
}

const selectPost = `
SELECT p.id, p.title, p.content, p.published_date, p.status, p.active, p.author_id,
       a.name AS author_name, a.email AS author_email, a.user_id AS author_user_id
FROM posts p
JOIN authors a ON a.id = p.author_id`

const selectComment = `
SELECT c.id, c.post_id, c.user_id, u.username, c.content, c.created
FROM comments c
LEFT JOIN users u ON u.id = c.user_id`

func (sr sqliteRepository) CreateUser(p context.Context, username string, tokenHash string) (repository.User, error) {
	row := userRow{}
	err := sr.db.GetContext(p, &row,
		"INSERT INTO users (username, token_hash, created_at) VALUES (?, ?, ?) RETURNING *",
		username, tokenHash, repository.Now().UnixMicro())
	if err != nil {
		return repository.User{}, translate(err)
	}
	return row.model(), nil
}

func (sr sqliteRepository) GetUser(p context.Context, id int64) (repository.User, error) {
	row := userRow{}
	if err := sr.db.GetContext(p, &row, "SELECT * FROM users WHERE id = ?", id); err != nil {
		return repository.User{}, translate(err)
	}
	return row.model(), nil
}

func (sr sqliteRepository) GetUserByTokenHash(p context.Context, tokenHash string) (repository.User, error) {
	row := userRow{}
	if err := sr.db.GetContext(p, &row, "SELECT * FROM users WHERE token_hash = ?", tokenHash); err != nil {
		return repository.User{}, translate(err)
	}
	return row.model(), nil
}

func (sr sqliteRepository) DeleteUser(p context.Context, id int64) error {
	return sr.deleteByID(p, "DELETE FROM users WHERE id = ?", id)
}

func (sr sqliteRepository) CreateAuthor(p context.Context, name string, email string, userID *int64) (repository.Author, error) {
	row := authorRow{}
	err := sr.db.GetContext(p, &row,
		"INSERT INTO authors (name, email, user_id) VALUES (?, ?, ?) RETURNING *",
		name, email, userID)
	if err != nil {
		return repository.Author{}, translate(err)
	}
	return row.model(), nil
}

func (sr sqliteRepository) GetAuthor(p context.Context, id int64) (repository.Author, error) {
	row := authorRow{}
	if err := sr.db.GetContext(p, &row, "SELECT * FROM authors WHERE id = ?", id); err != nil {
		return repository.Author{}, translate(err)
	}
	return row.model(), nil
}

func (sr sqliteRepository) GetAuthorByUser(p context.Context, userID int64) (repository.Author, error) {
	row := authorRow{}
	if err := sr.db.GetContext(p, &row, "SELECT * FROM authors WHERE user_id = ?", userID); err != nil {
		return repository.Author{}, translate(err)
	}
	return row.model(), nil
}

func (sr sqliteRepository) GetAuthors(p context.Context) ([]repository.Author, error) {
	rows := []authorRow{}
	if err := sr.db.SelectContext(p, &rows, "SELECT * FROM authors ORDER BY id"); err != nil {
		return nil, err
	}
	authors := make([]repository.Author, 0, len(rows))
	for _, row := range rows {
		authors = append(authors, row.model())
	}
	return authors, nil
}

func (sr sqliteRepository) DeleteAuthor(p context.Context, id int64) error {
	return sr.deleteByID(p, "DELETE FROM authors WHERE id = ?", id)
}

func (sr sqliteRepository) GetPost(p context.Context, id int64) (repository.Post, error) {
	row := postRow{}
	if err := sr.db.GetContext(p, &row, selectPost+" WHERE p.id = ?", id); err != nil {
		return repository.Post{}, translate(err)
	}
	return row.model(), nil
}

// GetPosts relies on LIKE being case-insensitive for ASCII in sqlite.
func (sr sqliteRepository) GetPosts(p context.Context, filter repository.PostFilter) ([]repository.Post, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.ActiveOnly {
		where = append(where, "p.active = 1")
	}
	if filter.Title != "" {
		where = append(where, `p.title LIKE ? ESCAPE '\'`)
		args = append(args, repository.ContainsPattern(filter.Title))
	}
	if filter.AuthorName != "" {
		where = append(where, `a.name LIKE ? ESCAPE '\'`)
		args = append(args, repository.ContainsPattern(filter.AuthorName))
	}
	if filter.PublishedAfter != nil {
		where = append(where, "p.published_date >= ?")
		args = append(args, filter.PublishedAfter.UnixMicro())
	}
	if filter.PublishedBefore != nil {
		where = append(where, "p.published_date <= ?")
		args = append(args, filter.PublishedBefore.UnixMicro())
	}

	query := selectPost
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.id"

	rows := []postRow{}
	if err := sr.db.SelectContext(p, &rows, query, args...); err != nil {
		return nil, err
	}
	posts := make([]repository.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.model())
	}
	return posts, nil
}

func (sr sqliteRepository) PostTitleExists(p context.Context, title string, excludeID int64) (bool, error) {
	var exists bool
	err := sr.db.GetContext(p, &exists,
		"SELECT EXISTS (SELECT 1 FROM posts WHERE title = ? AND id <> ?)", title, excludeID)
	return exists, err
}

func (sr sqliteRepository) CreatePost(p context.Context, post repository.Post) (repository.Post, error) {
	var postID int64
	err := sr.db.QueryRowContext(p,
		`INSERT INTO posts (title, content, published_date, author_id, status, active)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		post.Title, post.Content, repository.Now().UnixMicro(), post.AuthorID, string(post.Status), post.Active,
	).Scan(&postID)
	if err != nil {
		return repository.Post{}, translate(err)
	}
	return sr.GetPost(p, postID)
}

func (sr sqliteRepository) UpdatePost(p context.Context, post repository.Post) (repository.Post, error) {
	res, err := sr.db.ExecContext(p,
		"UPDATE posts SET title = ?, content = ?, status = ?, active = ? WHERE id = ?",
		post.Title, post.Content, string(post.Status), post.Active, post.ID)
	if err != nil {
		return repository.Post{}, translate(err)
	}
	if err := affected(res); err != nil {
		return repository.Post{}, err
	}
	return sr.GetPost(p, post.ID)
}

func (sr sqliteRepository) DeletePost(p context.Context, id int64) error {
	return sr.deleteByID(p, "DELETE FROM posts WHERE id = ?", id)
}

func (sr sqliteRepository) GetComments(p context.Context, postID int64) ([]repository.Comment, error) {
	rows := []commentRow{}
	err := sr.db.SelectContext(p, &rows, selectComment+" WHERE c.post_id = ? ORDER BY c.created, c.id", postID)
	if err != nil {
		return nil, err
	}
	comments := make([]repository.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.model())
	}
	return comments, nil
}

func (sr sqliteRepository) CreateComment(p context.Context, comment repository.Comment) (repository.Comment, error) {
	var commentID int64
	err := sr.db.QueryRowContext(p,
		"INSERT INTO comments (post_id, user_id, content, created) VALUES (?, ?, ?, ?) RETURNING id",
		comment.PostID, comment.UserID, comment.Content, repository.Now().UnixMicro(),
	).Scan(&commentID)
	if err != nil {
		return repository.Comment{}, translate(err)
	}

	row := commentRow{}
	if err := sr.db.GetContext(p, &row, selectComment+" WHERE c.id = ?", commentID); err != nil {
		return repository.Comment{}, translate(err)
	}
	return row.model(), nil
}

func (sr sqliteRepository) deleteByID(p context.Context, query string, id int64) error {
	res, err := sr.db.ExecContext(p, query, id)
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

var uniqueColumns = map[string]error{
	"posts.title":     repository.ErrDuplicateTitle,
	"authors.email":   repository.ErrDuplicateEmail,
	"authors.user_id": repository.ErrUserHasAuthor,
	"users.username":  repository.ErrDuplicateUsername,
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		for column, sentinel := range uniqueColumns {
			if strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed: "+column) {
				return sentinel
			}
		}
	}
	return err
}

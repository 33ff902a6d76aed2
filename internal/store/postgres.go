package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/blog-platform/internal/apperror"
	"github.com/ayush/blog-platform/internal/models"
)

const (
	pgUniqueViolation  = "23505"
	pgInvalidText      = "22P02"
	pgForeignViolation = "23503"
)

// PostgresStore handles user and blog persistence against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users and blogs tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username   VARCHAR(100) NOT NULL,
			email      VARCHAR(255) UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS blogs (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			slug       VARCHAR(200) UNIQUE NOT NULL,
			title      TEXT         NOT NULL,
			content    TEXT         NOT NULL,
			excerpt    TEXT         NOT NULL DEFAULT '',
			category   VARCHAR(100) NOT NULL DEFAULT '',
			featured   BOOLEAN      NOT NULL DEFAULT FALSE,
			author_id  UUID         NOT NULL REFERENCES users(id),
			tags       TEXT[]       NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS blogs_author_idx ON blogs (author_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, email, hashedPassword string) (*models.User, error) {
	u := models.User{BlogCreated: []string{}}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id::text, username, email, password, created_at, updated_at`,
		username, email, hashedPassword,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, pgError(fmt.Errorf("create user: %w", err), "User")
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `email = $1`, email)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `id = $1`, id)
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT u.id::text, u.username, u.email, u.password, u.created_at, u.updated_at,
		        COALESCE(ARRAY(SELECT b.id::text FROM blogs b WHERE b.author_id = u.id ORDER BY b.created_at, b.id), '{}')
		   FROM users u WHERE u.`+where, arg,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt, &u.BlogCreated)
	if err != nil {
		return nil, pgError(err, "User")
	}
	return &u, nil
}

// GetProfile loads a user and its blogs in creation order.
func (s *PostgresStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, blogSelect+` WHERE author_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, pgError(err, "Blog")
	}
	blogs, err := pgx.CollectRows(rows, scanBlog)
	if err != nil {
		return nil, pgError(err, "Blog")
	}

	return &models.Profile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		BlogCreated: blogs,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}, nil
}

func (s *PostgresStore) UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, username, email, created_at, updated_at FROM users WHERE id::text = ANY($1)`, ids)
	if err != nil {
		return nil, pgError(err, "User")
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, pgError(err, "User")
		}
		out[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, pgError(err, "User")
	}
	return out, nil
}

// CreateBlog inserts b. blogCreated is derived from blogs.author_id, so
// there is no second write to keep in step.
func (s *PostgresStore) CreateBlog(ctx context.Context, b *models.Blog) (*models.Blog, error) {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	rows, err := s.pool.Query(ctx,
		`INSERT INTO blogs (slug, title, content, excerpt, category, featured, author_id, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+blogColumns,
		b.Slug, b.Title, b.Content, b.Excerpt, b.Category, b.Featured, b.Author, tags,
	)
	if err != nil {
		return nil, pgError(fmt.Errorf("create blog: %w", err), "Slug")
	}
	created, err := pgx.CollectExactlyOneRow(rows, scanBlog)
	if err != nil {
		return nil, pgError(fmt.Errorf("create blog: %w", err), "Slug")
	}
	return &created, nil
}

func (s *PostgresStore) GetBlogBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	rows, err := s.pool.Query(ctx, blogSelect+` WHERE slug = $1`, slug)
	if err != nil {
		return nil, pgError(err, "Blog")
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBlog)
	if err != nil {
		return nil, pgError(err, "Blog")
	}
	return &b, nil
}

// ListBlogs returns every blog, newest first.
func (s *PostgresStore) ListBlogs(ctx context.Context) ([]models.Blog, error) {
	rows, err := s.pool.Query(ctx, blogSelect+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, pgError(err, "Blog")
	}
	blogs, err := pgx.CollectRows(rows, scanBlog)
	if err != nil {
		return nil, pgError(err, "Blog")
	}
	return blogs, nil
}

const blogColumns = `id::text, slug, title, content, excerpt, category, featured, author_id::text, tags, created_at, updated_at`

const blogSelect = `SELECT ` + blogColumns + ` FROM blogs`

func scanBlog(row pgx.CollectableRow) (models.Blog, error) {
	var b models.Blog
	err := row.Scan(&b.ID, &b.Slug, &b.Title, &b.Content, &b.Excerpt, &b.Category,
		&b.Featured, &b.Author, &b.Tags, &b.CreatedAt, &b.UpdatedAt)
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b, err
}

// pgError classifies a pgx error. Malformed ids never match a row, so
// they are reported as not found; a missing author is too.
func pgError(err error, entity string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound(entity + " not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewConflict(entity+" already exists", err)
		case pgInvalidText:
			return apperror.NewNotFound(entity + " not found")
		case pgForeignViolation:
			return apperror.NewNotFound("User not found")
		}
	}
	return apperror.NewPersistence("Database error", err)
}

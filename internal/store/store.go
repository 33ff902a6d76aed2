// Package store holds the persistence backends: the user and blog stores
// (MongoDB or PostgreSQL), Redis engagement counters and MinIO covers.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ayush/blog-platform/internal/config"
	"github.com/ayush/blog-platform/internal/models"
)

// Store is the user and blog persistence shared by both drivers.
type Store interface {
	CreateUser(ctx context.Context, username, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)

	CreateBlog(ctx context.Context, b *models.Blog) (*models.Blog, error)
	GetBlogBySlug(ctx context.Context, slug string) (*models.Blog, error)
	ListBlogs(ctx context.Context) ([]models.Blog, error)

	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Store = (*MongoStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Open connects to the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo ping: %w", err)
		}
		return NewMongoStore(client, client.Database(cfg.MongoDB)), nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		return NewPostgresStore(pool), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
